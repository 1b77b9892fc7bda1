package app

import (
	"context"
	"sync"
	"time"

	"scenario-quiz-service/internal/domain"
	"scenario-quiz-service/internal/metrics"
	"scenario-quiz-service/internal/progression"
)

// Session is one learner's live run of a quiz. It serializes access to the
// engine and tracks activity for idle resets.
type Session struct {
	id        string
	username  string
	timeLimit time.Duration
	startedAt time.Time
	now       func() time.Time

	mu         sync.Mutex
	engine     *progression.Engine
	tier       domain.Tier
	lastActive time.Time
	cancel     context.CancelFunc
}

// NewSession is exported for infrastructure layers and tests that seed sessions.
func NewSession(id, username string, engine *progression.Engine, timeLimit time.Duration) *Session {
	return NewSessionWithClock(id, username, engine, timeLimit, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(id, username string, engine *progression.Engine, timeLimit time.Duration, now func() time.Time) *Session {
	started := now()
	return &Session{
		id:         id,
		username:   username,
		timeLimit:  timeLimit,
		startedAt:  started,
		now:        now,
		engine:     engine,
		lastActive: started,
	}
}

func (s *Session) ID() string               { return s.id }
func (s *Session) Username() string         { return s.username }
func (s *Session) QuizName() string         { return s.engine.QuizName() }
func (s *Session) TimeLimit() time.Duration { return s.timeLimit }
func (s *Session) StartedAt() time.Time     { return s.startedAt }

// LastActive is the time of the last presentation or answer.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// PresentNext implements progression.Machine.
func (s *Session) PresentNext() (domain.ScenarioView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
	view, ok := s.engine.PresentNext()
	if ok {
		s.tier = view.Tier
	}
	return view, ok
}

// SubmitAnswer implements progression.Machine.
func (s *Session) SubmitAnswer(optionIndex int) (domain.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
	outcome, err := s.engine.SubmitAnswer(optionIndex)
	if err == nil {
		metrics.AnswersSubmitted.WithLabelValues(s.engine.QuizName(), string(s.tier)).Inc()
	}
	return outcome, err
}

// Finalize implements progression.Machine.
func (s *Session) Finalize() domain.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Finalize()
}

// Progress returns a snapshot of the learner's progress.
func (s *Session) Progress() progression.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Progress()
}

func (s *Session) bind(cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = cancel
}

// stop cancels the run bound to the session and reports whether there was one.
func (s *Session) stop() bool {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	return true
}
