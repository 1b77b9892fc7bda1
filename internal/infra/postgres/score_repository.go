package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"scenario-quiz-service/internal/domain"
)

type scoreRow struct {
	bun.BaseModel `bun:"table:scores"`

	Username   string    `bun:"username,pk"`
	QuizName   string    `bun:"quiz_name,pk"`
	Percentage int       `bun:"percentage,notnull"`
	FinalScore int       `bun:"final_score,notnull"`
	MaxXP      int       `bun:"max_xp,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

// ScoreRepository keeps the latest score per learner and quiz.
type ScoreRepository struct {
	db *bun.DB
}

func NewScoreRepository(db *bun.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

func (r *ScoreRepository) SaveScore(ctx context.Context, record domain.ScoreRecord) error {
	row := scoreRow{
		Username:   record.Username,
		QuizName:   record.QuizName,
		Percentage: record.Percentage,
		FinalScore: record.FinalScore,
		MaxXP:      record.MaxXP,
		UpdatedAt:  record.UpdatedAt,
	}
	_, err := r.db.NewInsert().
		Model(&row).
		On("CONFLICT (username, quiz_name) DO UPDATE").
		Set("percentage = EXCLUDED.percentage").
		Set("final_score = EXCLUDED.final_score").
		Set("max_xp = EXCLUDED.max_xp").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save score: %w", err)
	}
	return nil
}

// Score returns the stored record for a learner and quiz.
func (r *ScoreRepository) Score(ctx context.Context, username, quizName string) (domain.ScoreRecord, bool, error) {
	var row scoreRow
	err := r.db.NewSelect().Model(&row).
		Where("username = ?", username).
		Where("quiz_name = ?", quizName).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ScoreRecord{}, false, nil
	}
	if err != nil {
		return domain.ScoreRecord{}, false, fmt.Errorf("get score: %w", err)
	}
	return domain.ScoreRecord{
		Username:   row.Username,
		QuizName:   row.QuizName,
		Percentage: row.Percentage,
		FinalScore: row.FinalScore,
		MaxXP:      row.MaxXP,
		UpdatedAt:  row.UpdatedAt.UTC(),
	}, true, nil
}
