package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"scenario-quiz-service/internal/domain"
)

type settingRow struct {
	bun.BaseModel `bun:"table:settings"`

	Key         string          `bun:"key,pk"`
	Value       json.RawMessage `bun:"value,type:jsonb,notnull"`
	Description string          `bun:"description,notnull"`
	UpdatedAt   time.Time       `bun:"updated_at,notnull"`
}

func (r settingRow) toDomain() domain.Setting {
	return domain.Setting{
		Key:         r.Key,
		Value:       append(json.RawMessage(nil), r.Value...),
		Description: r.Description,
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func settingFromDomain(s domain.Setting) settingRow {
	return settingRow{
		Key:         s.Key,
		Value:       s.Value,
		Description: s.Description,
		UpdatedAt:   s.UpdatedAt,
	}
}

// SettingsRepository stores runtime settings in the settings table.
type SettingsRepository struct {
	db *bun.DB
}

func NewSettingsRepository(db *bun.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context, key string) (domain.Setting, error) {
	var row settingRow
	err := r.db.NewSelect().Model(&row).Where("key = ?", key).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Setting{}, domain.ErrSettingNotFound
	}
	if err != nil {
		return domain.Setting{}, fmt.Errorf("get setting %q: %w", key, err)
	}
	return row.toDomain(), nil
}

func (r *SettingsRepository) List(ctx context.Context) ([]domain.Setting, error) {
	var rows []settingRow
	if err := r.db.NewSelect().Model(&rows).Order("key ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	out := make([]domain.Setting, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, setting domain.Setting) (domain.Setting, error) {
	row := settingFromDomain(setting)
	_, err := r.db.NewInsert().
		Model(&row).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("description = EXCLUDED.description").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.Setting{}, fmt.Errorf("upsert setting %q: %w", setting.Key, err)
	}
	return row.toDomain(), nil
}

func (r *SettingsRepository) Delete(ctx context.Context, key string) error {
	res, err := r.db.NewDelete().Model((*settingRow)(nil)).Where("key = ?", key).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrSettingNotFound
	}
	return nil
}
