package memory

import (
	"context"
	"sync"

	"scenario-quiz-service/internal/domain"
)

type scoreKey struct {
	username string
	quiz     string
}

// ScoreRepository upserts final scores in process, keyed by learner and quiz.
type ScoreRepository struct {
	mu     sync.RWMutex
	scores map[scoreKey]domain.ScoreRecord
}

func NewScoreRepository() *ScoreRepository {
	return &ScoreRepository{scores: make(map[scoreKey]domain.ScoreRecord)}
}

func (r *ScoreRepository) SaveScore(_ context.Context, record domain.ScoreRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores[scoreKey{username: record.Username, quiz: record.QuizName}] = record
	return nil
}

// Score returns the stored record for a learner and quiz.
func (r *ScoreRepository) Score(username, quizName string) (domain.ScoreRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.scores[scoreKey{username: username, quiz: quizName}]
	return record, ok
}
