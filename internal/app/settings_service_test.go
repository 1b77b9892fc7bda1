package app_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scenario-quiz-service/internal/app"
	"scenario-quiz-service/internal/domain"
	"scenario-quiz-service/internal/infra/memory"
)

func TestSettingsUpsertValidates(t *testing.T) {
	ctx := context.Background()
	svc := app.NewSettingsService(memory.NewSettingsRepository(), zap.NewNop())

	_, err := svc.Upsert(ctx, "  ", json.RawMessage(`1`), "")
	assert.ErrorIs(t, err, domain.ErrInvalidSetting)

	_, err = svc.Upsert(ctx, "quiz.triage.timer", json.RawMessage(`ten minutes`), "")
	assert.ErrorIs(t, err, domain.ErrInvalidSetting)

	_, err = svc.Get(ctx, "quiz.triage.timer")
	assert.ErrorIs(t, err, domain.ErrSettingNotFound)
}

func TestSettingsUpsertStampsUpdatedAt(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	svc := app.NewSettingsService(memory.NewSettingsRepository(), zap.NewNop(),
		app.WithSettingsClock(func() time.Time { return now }))

	stored, err := svc.Upsert(ctx, "session.auto_reset", json.RawMessage(`"15m"`), "idle cutoff")
	require.NoError(t, err)
	assert.Equal(t, now.UTC(), stored.UpdatedAt)
	assert.Equal(t, "idle cutoff", stored.Description)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, "session.auto_reset"))
	assert.ErrorIs(t, svc.Delete(ctx, "session.auto_reset"), domain.ErrSettingNotFound)
}

func TestSettingsTypedGetters(t *testing.T) {
	ctx := context.Background()
	svc := app.NewSettingsService(memory.NewSettingsRepository(), zap.NewNop())
	set := func(key, value string) {
		_, err := svc.Upsert(ctx, key, json.RawMessage(value), "")
		require.NoError(t, err)
	}
	set("seconds", `90`)
	set("text", `"2m30s"`)
	set("bool", `true`)
	set("bad-text", `"soon"`)
	set("count", `7`)

	def := 5 * time.Minute
	assert.Equal(t, 90*time.Second, svc.Duration(ctx, "seconds", def))
	assert.Equal(t, 150*time.Second, svc.Duration(ctx, "text", def))
	assert.Equal(t, def, svc.Duration(ctx, "bool", def))
	assert.Equal(t, def, svc.Duration(ctx, "bad-text", def))
	assert.Equal(t, def, svc.Duration(ctx, "missing", def))

	assert.Equal(t, 7, svc.Int(ctx, "count", 3))
	assert.Equal(t, 3, svc.Int(ctx, "text", 3))
	assert.Equal(t, 3, svc.Int(ctx, "missing", 3))
}
