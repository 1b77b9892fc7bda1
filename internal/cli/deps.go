package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"scenario-quiz-service/internal/app"
	"scenario-quiz-service/internal/config"
	"scenario-quiz-service/internal/content"
	"scenario-quiz-service/internal/domain"
	"scenario-quiz-service/internal/infra/memory"
	"scenario-quiz-service/internal/infra/postgres"
	redisinfra "scenario-quiz-service/internal/infra/redis"
	"scenario-quiz-service/internal/logger"
)

// deps is the wired service graph shared by the server and the local commands.
type deps struct {
	cfg      config.Config
	log      *zap.Logger
	quizzes  *app.QuizService
	settings *app.SettingsService

	db      *bun.DB
	pool    *pgxpool.Pool
	redis   *redis.Client
	closers []func()
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func loadConfig(configPath string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

// buildDeps picks Postgres/Redis backed infrastructure when configured and
// in-process stores otherwise.
func buildDeps(ctx context.Context, cfg config.Config, log *zap.Logger) (*deps, error) {
	d := &deps{cfg: cfg, log: log}

	if cfg.Postgres.URL != "" {
		d.db = postgres.OpenDB(cfg.Postgres.URL)
		d.closers = append(d.closers, func() { _ = d.db.Close() })

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		d.pool = pool
		d.closers = append(d.closers, pool.Close)
	}
	if cfg.Redis.Addr != "" {
		d.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.closers = append(d.closers, func() { _ = d.redis.Close() })
	}

	loader, err := d.quizLoader()
	if err != nil {
		d.Close()
		return nil, err
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	var sessions app.SessionRepository
	if d.redis != nil {
		quizRepo = redisinfra.NewQuizRepository(d.redis, loader, quizTTL)
		sessions = redisinfra.NewSessionStore(d.redis, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute))
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
		sessions = memory.NewSessionStore()
	}

	var settingsRepo app.SettingsRepository = memory.NewSettingsRepository()
	var scores app.ScoreRepository = memory.NewScoreRepository()
	if d.db != nil {
		settingsRepo = postgres.NewSettingsRepository(d.db)
		scores = postgres.NewScoreRepository(d.db)
	}

	d.settings = app.NewSettingsService(settingsRepo, log)
	d.quizzes = app.NewQuizService(sessions, quizRepo, scores, d.settings, log,
		app.WithTimer(config.TTLDuration(cfg.Quiz.Timer, 0)),
		app.WithIdleReset(config.TTLDuration(cfg.Quiz.IdleReset, 30*time.Minute)),
	)
	return d, nil
}

func (d *deps) quizLoader() (memory.QuizLoader, error) {
	if d.pool != nil {
		d.log.Info("loading quizzes from postgres")
		return postgres.NewQuizLoader(d.pool), nil
	}
	quizzes, err := localContent(d.cfg.Quiz.ContentDir)
	if err != nil {
		return nil, err
	}
	d.log.Info("loading quizzes from content files",
		zap.String("content_dir", d.cfg.Quiz.ContentDir),
		zap.Strings("quizzes", content.Names(quizzes)),
	)
	return memory.NewStaticQuizLoader(quizzes), nil
}

// localContent reads dir, or the bundled content when dir is empty.
func localContent(dir string) (map[string]domain.Quiz, error) {
	if dir == "" {
		return content.Bundled()
	}
	return content.Load(os.DirFS(dir))
}
