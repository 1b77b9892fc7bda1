package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"scenario-quiz-service/internal/domain"
	"scenario-quiz-service/internal/metrics"
	"scenario-quiz-service/internal/progression"
)

// SessionRepository abstracts where live sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
	// Idle returns sessions whose last activity is before the cutoff.
	Idle(before time.Time) []*Session
	Len() int
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, name string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]string, error)
}

// ScoreRepository persists final scores keyed by (username, quiz name).
type ScoreRepository interface {
	SaveScore(ctx context.Context, record domain.ScoreRecord) error
}

var errIdleReset = errors.New("idle reset")

const (
	// IdleResetKey holds the idle duration after which live sessions are dropped.
	IdleResetKey = "session.auto_reset"

	scoreSaveTimeout = 5 * time.Second
)

// TimerKey is the setting holding a quiz's time limit.
func TimerKey(quizName string) string {
	return "quiz." + quizName + ".timer"
}

// QuizService contains the learner-facing quiz use cases.
type QuizService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	scores   ScoreRepository
	settings *SettingsService
	log      *zap.Logger

	timer     time.Duration
	idleReset time.Duration
	now       func() time.Time
	newRand   func() *rand.Rand
}

// Option configures a QuizService.
type Option func(*QuizService)

// WithTimer sets the time limit used when no per-quiz setting exists. Zero disables it.
func WithTimer(d time.Duration) Option {
	return func(s *QuizService) { s.timer = d }
}

// WithIdleReset sets the idle cutoff used when no setting exists. Zero disables resets.
func WithIdleReset(d time.Duration) Option {
	return func(s *QuizService) { s.idleReset = d }
}

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

// WithRandSource controls option shuffling of new sessions.
func WithRandSource(fn func() *rand.Rand) Option {
	return func(s *QuizService) { s.newRand = fn }
}

// NewQuizService wires the service. scores and settings may be nil.
func NewQuizService(sessions SessionRepository, quizzes QuizRepository, scores ScoreRepository, settings *SettingsService, log *zap.Logger, opts ...Option) *QuizService {
	s := &QuizService{
		sessions: sessions,
		quizzes:  quizzes,
		scores:   scores,
		settings: settings,
		log:      log.Named("QuizService"),
		now:      time.Now,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QuizNames lists the quizzes learners can start.
func (s *QuizService) QuizNames(ctx context.Context) ([]string, error) {
	return s.quizzes.ListQuizzes(ctx)
}

// Start creates a session with a fresh engine for the learner.
func (s *QuizService) Start(ctx context.Context, quizName, username string) (*Session, error) {
	if username == "" {
		return nil, domain.ErrLearnerRequired
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizName)
	if err != nil {
		return nil, err
	}
	engine, err := progression.New(quiz, progression.WithRand(s.newRand()))
	if err != nil {
		return nil, err
	}

	timeLimit := s.timer
	if s.settings != nil {
		timeLimit = s.settings.Duration(ctx, TimerKey(quiz.Name), s.timer)
	}

	session := NewSessionWithClock(uuid.NewString(), username, engine, timeLimit, s.now)
	s.sessions.Put(session)
	metrics.QuizzesStarted.WithLabelValues(quiz.Name).Inc()
	metrics.ActiveSessions.Set(float64(s.sessions.Len()))

	s.log.Info("quiz session started",
		zap.String("session_id", session.ID()),
		zap.String("quiz", quiz.Name),
		zap.String("username", username),
		zap.Duration("time_limit", timeLimit),
	)
	return session, nil
}

// Get returns a live session.
func (s *QuizService) Get(id string) (*Session, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Play runs a whole quiz through a presenter: start, answer loop, summary,
// score upsert. An expired time limit ends the quiz normally; any other
// interruption abandons the session without persisting anything.
func (s *QuizService) Play(ctx context.Context, quizName, username string, p progression.Presenter) (domain.Summary, error) {
	session, err := s.Start(ctx, quizName, username)
	if err != nil {
		return domain.Summary{}, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if limit := session.TimeLimit(); limit > 0 {
		var cancelTimer context.CancelFunc
		runCtx, cancelTimer = context.WithTimeout(runCtx, limit)
		defer cancelTimer()
	}
	session.bind(cancel)

	summary, err := progression.Play(runCtx, session, p)
	reason := "completed"
	if err != nil {
		if !errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			s.abandon(session, err)
			return domain.Summary{}, err
		}
		reason = "timer"
		summary = session.Finalize()
	}

	renderErr := p.RenderSummary(ctx, summary)
	s.finish(ctx, session, reason)
	if renderErr != nil {
		return summary, fmt.Errorf("render summary: %w", renderErr)
	}
	return summary, nil
}

// Finish finalizes a session, removes it and upserts the learner's score.
// Score persistence failures are logged, never returned.
func (s *QuizService) Finish(ctx context.Context, session *Session) domain.Summary {
	return s.finish(ctx, session, "completed")
}

func (s *QuizService) finish(ctx context.Context, session *Session, reason string) domain.Summary {
	summary := session.Finalize()
	s.complete(session, summary, reason)
	s.saveScore(ctx, session, summary)
	return summary
}

// ResetIdle drops sessions idle longer than the configured cutoff and
// returns how many were dropped.
func (s *QuizService) ResetIdle(ctx context.Context, now time.Time) int {
	idle := s.idleReset
	if s.settings != nil {
		idle = s.settings.Duration(ctx, IdleResetKey, s.idleReset)
	}
	if idle <= 0 {
		return 0
	}
	dropped := 0
	for _, session := range s.sessions.Idle(now.Add(-idle)) {
		// A running Play notices the cancellation and abandons the session itself.
		if !session.stop() {
			s.abandon(session, errIdleReset)
		}
		dropped++
	}
	return dropped
}

func (s *QuizService) complete(session *Session, summary domain.Summary, reason string) {
	s.sessions.Delete(session.ID())
	metrics.ActiveSessions.Set(float64(s.sessions.Len()))
	metrics.QuizzesFinished.WithLabelValues(summary.QuizName, reason).Inc()
	metrics.ScorePercentage.WithLabelValues(summary.QuizName).Observe(float64(summary.ScorePercentage))
	s.log.Info("quiz session finished",
		zap.String("session_id", session.ID()),
		zap.String("quiz", summary.QuizName),
		zap.String("reason", reason),
		zap.Int("final_score", summary.FinalScore),
		zap.Int("score_percentage", summary.ScorePercentage),
	)
}

func (s *QuizService) abandon(session *Session, cause error) {
	s.sessions.Delete(session.ID())
	metrics.ActiveSessions.Set(float64(s.sessions.Len()))
	metrics.QuizzesAbandoned.WithLabelValues(session.QuizName()).Inc()
	s.log.Info("quiz session abandoned",
		zap.String("session_id", session.ID()),
		zap.String("quiz", session.QuizName()),
		zap.Error(cause),
	)
}

// saveScore never fails the caller: results are already with the learner.
func (s *QuizService) saveScore(ctx context.Context, session *Session, summary domain.Summary) {
	if s.scores == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), scoreSaveTimeout)
	defer cancel()

	record := domain.ScoreRecord{
		Username:   session.Username(),
		QuizName:   summary.QuizName,
		Percentage: summary.ScorePercentage,
		FinalScore: summary.FinalScore,
		MaxXP:      summary.MaxXP,
		UpdatedAt:  s.now().UTC(),
	}
	if err := s.scores.SaveScore(saveCtx, record); err != nil {
		metrics.ScoreSaveFailures.Inc()
		s.log.Error("failed to save quiz score",
			zap.String("session_id", session.ID()),
			zap.String("quiz", record.QuizName),
			zap.String("username", record.Username),
			zap.Error(err),
		)
	}
}
