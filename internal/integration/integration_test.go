package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"scenario-quiz-service/internal/app"
	"scenario-quiz-service/internal/content"
	"scenario-quiz-service/internal/domain"
	"scenario-quiz-service/internal/infra/postgres"
	pgmigrations "scenario-quiz-service/internal/infra/postgres/migrations"
	infraredis "scenario-quiz-service/internal/infra/redis"
)

func TestPlayBundledQuizEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := postgres.OpenDB(pgURL)
	defer db.Close()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err := migrator.Migrate(ctx)
	require.NoError(t, err)

	bundled, err := content.Bundled()
	require.NoError(t, err)
	quiz := bundled["exploratory-testing"]
	require.NoError(t, postgres.NewQuizStore(db).Import(ctx, quiz))

	pool, err := pgxpool.Connect(ctx, pgURL)
	require.NoError(t, err)
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	require.NoError(t, err)
	defer redisClient.Close()

	log := zap.NewNop()
	quizRepo := infraredis.NewQuizRepository(redisClient, postgres.NewQuizLoader(pool), 5*time.Minute)
	sessionStore := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	settings := app.NewSettingsService(postgres.NewSettingsRepository(db), log)
	scores := postgres.NewScoreRepository(db)
	service := app.NewQuizService(sessionStore, quizRepo, scores, settings, log)

	names, err := service.QuizNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"exploratory-testing"}, names)

	idle, err := settings.Get(ctx, app.IdleResetKey)
	require.NoError(t, err, "migration seeds the idle reset")
	assert.JSONEq(t, `"30m"`, string(idle.Value))

	stored, err := settings.Upsert(ctx, app.TimerKey(quiz.Name), json.RawMessage(`900`), "fifteen minutes")
	require.NoError(t, err)
	assert.JSONEq(t, `900`, string(stored.Value))
	timer, err := settings.Get(ctx, app.TimerKey(quiz.Name))
	require.NoError(t, err)
	assert.JSONEq(t, `900`, string(timer.Value))
	assert.Equal(t, 15*time.Minute, settings.Duration(ctx, app.TimerKey(quiz.Name), 0))
	assert.Equal(t, 30*time.Minute, settings.Duration(ctx, app.IdleResetKey, 0))

	session, err := service.Start(ctx, quiz.Name, "grace")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, session.TimeLimit())
	service.Finish(ctx, session)

	summary, err := service.Play(ctx, quiz.Name, "ada", &bestAnswerPresenter{quiz: quiz})
	require.NoError(t, err)
	assert.Len(t, summary.History, quiz.Rules.TotalQuestions)
	assert.Equal(t, quiz.Rules.MaxXP, summary.FinalScore)
	assert.Equal(t, 100, summary.ScorePercentage)

	record, ok, err := scores.Score(ctx, "ada", quiz.Name)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 100, record.Percentage)

	// A replay with the worst answers overwrites the stored score.
	_, err = service.Play(ctx, quiz.Name, "ada", &bestAnswerPresenter{quiz: quiz, worst: true})
	require.NoError(t, err)
	record, _, err = scores.Score(ctx, "ada", quiz.Name)
	require.NoError(t, err)
	assert.Equal(t, 0, record.Percentage)
	assert.Equal(t, 0, sessionStore.Len())
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

// bestAnswerPresenter picks the highest (or lowest) XP option of each scenario.
type bestAnswerPresenter struct {
	quiz  domain.Quiz
	worst bool

	mu      sync.Mutex
	current domain.ScenarioView
}

func (p *bestAnswerPresenter) RenderScenario(_ context.Context, view domain.ScenarioView) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = view
	return nil
}

func (p *bestAnswerPresenter) CaptureSelection(context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sc, ok := findScenario(p.quiz, p.current.ScenarioID)
	if !ok {
		return 0, fmt.Errorf("unknown scenario %q", p.current.ScenarioID)
	}
	pick := 0
	for i, opt := range sc.Options {
		better := opt.Experience > sc.Options[pick].Experience
		if p.worst {
			better = opt.Experience < sc.Options[pick].Experience
		}
		if better {
			pick = i
		}
	}
	return pick, nil
}

func (p *bestAnswerPresenter) RenderOutcome(context.Context, domain.Outcome) error { return nil }

func (p *bestAnswerPresenter) RenderSummary(context.Context, domain.Summary) error { return nil }

func findScenario(quiz domain.Quiz, id string) (domain.Scenario, bool) {
	for _, tier := range domain.Tiers {
		for _, sc := range quiz.Scenarios.ForTier(tier) {
			if sc.ID == id {
				return sc, true
			}
		}
	}
	return domain.Scenario{}, false
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
