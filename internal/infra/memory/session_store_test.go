package memory

import (
	"testing"
	"time"

	"scenario-quiz-service/internal/app"
	"scenario-quiz-service/internal/progression"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	session := newSession(t, "s1", time.Now)

	store.Put(session)
	if _, ok := store.Get("s1"); !ok {
		t.Fatalf("expected session present")
	}
	if store.Len() != 1 {
		t.Fatalf("expected one session, got %d", store.Len())
	}

	store.Delete("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session removed")
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
}

func TestSessionStoreIdle(t *testing.T) {
	store := NewSessionStore()
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start
	clock := func() time.Time { return now }

	stale := newSession(t, "stale", clock)
	now = start.Add(10 * time.Minute)
	fresh := newSession(t, "fresh", clock)
	store.Put(stale)
	store.Put(fresh)

	idle := store.Idle(start.Add(5 * time.Minute))
	if len(idle) != 1 || idle[0].ID() != "stale" {
		t.Fatalf("expected only stale session idle, got %d", len(idle))
	}

	now = start.Add(20 * time.Minute)
	stale.PresentNext()
	idle = store.Idle(start.Add(15 * time.Minute))
	if len(idle) != 1 || idle[0].ID() != "fresh" {
		t.Fatalf("expected activity to refresh stale session, got %d idle", len(idle))
	}
}

func newSession(t *testing.T, id string, clock func() time.Time) *app.Session {
	t.Helper()
	engine, err := progression.New(sampleQuiz("quiz-1"))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return app.NewSessionWithClock(id, "ada", engine, 0, clock)
}
