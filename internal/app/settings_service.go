package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"scenario-quiz-service/internal/domain"
)

// SettingsRepository persists runtime settings.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (domain.Setting, error)
	List(ctx context.Context) ([]domain.Setting, error)
	// Upsert inserts or replaces the setting and returns the stored row.
	Upsert(ctx context.Context, setting domain.Setting) (domain.Setting, error)
	Delete(ctx context.Context, key string) error
}

// SettingsService manages runtime settings such as quiz timers and the idle reset.
type SettingsService struct {
	repo SettingsRepository
	log  *zap.Logger
	now  func() time.Time
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithSettingsClock is test-only for deterministic timestamps.
func WithSettingsClock(now func() time.Time) SettingsOption {
	return func(s *SettingsService) { s.now = now }
}

func NewSettingsService(repo SettingsRepository, log *zap.Logger, opts ...SettingsOption) *SettingsService {
	s := &SettingsService{
		repo: repo,
		log:  log.Named("SettingsService"),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SettingsService) Get(ctx context.Context, key string) (domain.Setting, error) {
	return s.repo.Get(ctx, key)
}

func (s *SettingsService) List(ctx context.Context) ([]domain.Setting, error) {
	return s.repo.List(ctx)
}

// Upsert stores value under key. The value must be valid JSON.
func (s *SettingsService) Upsert(ctx context.Context, key string, value json.RawMessage, description string) (domain.Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.Setting{}, fmt.Errorf("%w: empty key", domain.ErrInvalidSetting)
	}
	if !json.Valid(value) {
		return domain.Setting{}, fmt.Errorf("%w: value of %q is not JSON", domain.ErrInvalidSetting, key)
	}
	stored, err := s.repo.Upsert(ctx, domain.Setting{
		Key:         key,
		Value:       value,
		Description: description,
		UpdatedAt:   s.now().UTC(),
	})
	if err != nil {
		return domain.Setting{}, err
	}
	s.log.Info("setting updated", zap.String("key", key), zap.ByteString("value", value))
	return stored, nil
}

func (s *SettingsService) Delete(ctx context.Context, key string) error {
	if err := s.repo.Delete(ctx, key); err != nil {
		return err
	}
	s.log.Info("setting deleted", zap.String("key", key))
	return nil
}

// Duration reads key as a duration. Numbers are seconds, strings use
// time.ParseDuration syntax. Missing or malformed values yield def.
func (s *SettingsService) Duration(ctx context.Context, key string, def time.Duration) time.Duration {
	setting, ok := s.lookup(ctx, key)
	if !ok {
		return def
	}
	var seconds float64
	if err := json.Unmarshal(setting.Value, &seconds); err == nil {
		return time.Duration(seconds * float64(time.Second))
	}
	var text string
	if err := json.Unmarshal(setting.Value, &text); err == nil {
		if d, err := time.ParseDuration(text); err == nil {
			return d
		}
	}
	s.log.Warn("setting is not a duration, using default",
		zap.String("key", key),
		zap.ByteString("value", setting.Value),
		zap.Duration("default", def),
	)
	return def
}

// Int reads key as an integer. Missing or malformed values yield def.
func (s *SettingsService) Int(ctx context.Context, key string, def int) int {
	setting, ok := s.lookup(ctx, key)
	if !ok {
		return def
	}
	var n int
	if err := json.Unmarshal(setting.Value, &n); err != nil {
		s.log.Warn("setting is not an integer, using default",
			zap.String("key", key),
			zap.ByteString("value", setting.Value),
			zap.Int("default", def),
		)
		return def
	}
	return n
}

func (s *SettingsService) lookup(ctx context.Context, key string) (domain.Setting, bool) {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrSettingNotFound) {
			s.log.Warn("failed to read setting", zap.String("key", key), zap.Error(err))
		}
		return domain.Setting{}, false
	}
	return setting, true
}
