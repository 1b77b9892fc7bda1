package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scenario-quiz-service/internal/content"
	"scenario-quiz-service/internal/domain"
	"scenario-quiz-service/internal/infra/postgres"
	redisinfra "scenario-quiz-service/internal/infra/redis"
)

// NewContentCmd checks and publishes quiz content modules.
func NewContentCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Lint and import quiz content",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "lint [dir]",
		Short: "Check quiz YAML files (bundled content when dir is omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			quizzes, err := localContent(firstArg(args))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			failed := false
			for _, name := range content.Names(quizzes) {
				issues := content.Lint(quizzes[name])
				for _, issue := range issues {
					fmt.Fprintln(out, issue)
				}
				if content.HasErrors(issues) {
					failed = true
				}
				fmt.Fprintf(out, "%s: %d scenarios, %d issues\n", name, quizzes[name].Scenarios.Len(), len(issues))
			}
			if failed {
				return errors.New("content has errors")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import [dir]",
		Short: "Upsert quiz content into Postgres (bundled content when dir is omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
				return err
			}

			quizzes, err := localContent(firstArg(args))
			if err != nil {
				return err
			}
			for _, name := range content.Names(quizzes) {
				if issues := content.Lint(quizzes[name]); content.HasErrors(issues) {
					return fmt.Errorf("%s: content has errors, run content lint", name)
				}
			}

			d, err := buildDeps(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer d.Close()

			names := content.Names(quizzes)
			batch := make([]domain.Quiz, 0, len(names))
			for _, name := range names {
				batch = append(batch, quizzes[name])
			}
			if err := postgres.NewQuizStore(d.db).Import(ctx, batch...); err != nil {
				return err
			}
			if d.redis != nil {
				cache := redisinfra.NewQuizRepository(d.redis, nil, 0)
				for _, name := range names {
					if err := cache.Invalidate(ctx, name); err != nil {
						log.Warn("failed to invalidate cached quiz", zap.String("quiz", name), zap.Error(err))
					}
				}
			}
			log.Info("quizzes imported", zap.Strings("quizzes", names))
			return nil
		},
	})
	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
