package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"scenario-quiz-service/internal/domain"
	"scenario-quiz-service/internal/infra/memory"
)

func TestQuizRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		QuizLoader: memory.NewStaticQuizLoader(map[string]domain.Quiz{
			"quiz-1": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(client, loader, time.Minute)

	first, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("quiz:quiz-1:content") {
		t.Fatalf("expected content key to be set")
	}
	if ttl := mr.TTL("quiz:quiz-1:content"); ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("expected ttl with jitter, got %s", ttl)
	}

	// Second call should hit cache, loader not incremented.
	second, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get cached quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if second.Scenarios.Basic[0].Options[0].Experience != first.Scenarios.Basic[0].Options[0].Experience {
		t.Fatalf("cached quiz lost option experience")
	}
	if second.Scenarios.Intermediate[0].Tier != domain.TierIntermediate {
		t.Fatalf("cached quiz lost tier tag, got %q", second.Scenarios.Intermediate[0].Tier)
	}

	if err := repo.Invalidate(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestQuizRepositoryDoesNotCacheMisses(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewQuizRepository(newClient(mr), memory.NewStaticQuizLoader(nil), time.Minute)
	if _, err := repo.GetQuiz(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
	if mr.Exists("quiz:missing:content") {
		t.Fatalf("expected no cache entry for a missing quiz")
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, name string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, name)
}

func sampleQuiz() domain.Quiz {
	scenario := func(id string, xp int) []domain.Scenario {
		return []domain.Scenario{{
			ID:    id,
			Title: "Release day",
			Options: []domain.Option{
				{Text: "Run the smoke suite", Outcome: "Caught a broken build", Experience: xp, Tool: "smoke-suite"},
				{Text: "Ship it", Outcome: "Rollback at midnight", Experience: -15},
			},
		}}
	}
	return domain.Quiz{
		Name: "quiz-1",
		Rules: domain.Rules{
			MaxXP:          60,
			TotalQuestions: 3,
			Basic:          domain.Gate{Questions: 1, MinXP: 10},
			Intermediate:   domain.Gate{Questions: 2, MinXP: 30},
			Performance:    []domain.PerformanceThreshold{{Threshold: 0, Message: "Done"}},
		},
		Scenarios: domain.Bank{
			Basic:        scenario("b1", 15),
			Intermediate: scenario("i1", 20),
			Advanced:     scenario("a1", 25),
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
