package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"scenario-quiz-service/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions hold a live engine, so they stay in a local map.
//   - Redis carries a liveness marker per session. Operators can drop a
//     session by deleting its key; the next idle reset then collects it.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(session.ID()), session.Username(), s.ttl).Err()
}

func (s *SessionStore) Get(id string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return
	}
	delete(s.sessions, id)
	_ = s.client.Del(context.Background(), s.key(id)).Err()
}

// Idle returns sessions inactive since before, plus sessions whose liveness
// marker is gone. Markers of the remaining sessions get their TTL refreshed.
// Redis errors leave the marker check out.
func (s *SessionStore) Idle(before time.Time) []*app.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	pipe := s.client.Pipeline()
	exists := make(map[string]*redis.IntCmd, len(s.sessions))
	for id := range s.sessions {
		exists[id] = pipe.Exists(ctx, s.key(id))
	}
	_, pipeErr := pipe.Exec(ctx)

	var idle []*app.Session
	refresh := s.client.Pipeline()
	for id, session := range s.sessions {
		if session.LastActive().Before(before) {
			idle = append(idle, session)
			continue
		}
		if pipeErr == nil && exists[id].Val() == 0 {
			idle = append(idle, session)
			continue
		}
		if s.ttl > 0 {
			refresh.Expire(ctx, s.key(id), s.ttl)
		}
	}
	if refresh.Len() > 0 {
		_, _ = refresh.Exec(ctx)
	}
	return idle
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) key(id string) string {
	return "quiz:session:" + id
}
