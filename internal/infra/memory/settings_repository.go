package memory

import (
	"context"
	"sort"
	"sync"

	"scenario-quiz-service/internal/domain"
)

// SettingsRepository keeps settings in process; used when no database is configured.
type SettingsRepository struct {
	mu       sync.RWMutex
	settings map[string]domain.Setting
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{settings: make(map[string]domain.Setting)}
}

func (r *SettingsRepository) Get(_ context.Context, key string) (domain.Setting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	setting, ok := r.settings[key]
	if !ok {
		return domain.Setting{}, domain.ErrSettingNotFound
	}
	return setting, nil
}

func (r *SettingsRepository) List(context.Context) ([]domain.Setting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Setting, 0, len(r.settings))
	for _, setting := range r.settings {
		out = append(out, setting)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *SettingsRepository) Upsert(_ context.Context, setting domain.Setting) (domain.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[setting.Key] = setting
	return setting, nil
}

func (r *SettingsRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.settings[key]; !ok {
		return domain.ErrSettingNotFound
	}
	delete(r.settings, key)
	return nil
}
