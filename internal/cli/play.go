package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scenario-quiz-service/internal/transport/console"
)

// NewPlayCmd plays a quiz in the terminal against the configured stores.
func NewPlayCmd(configPath *string) *cobra.Command {
	var quizName, username string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if quizName == "" || username == "" {
				return errors.New("--quiz and --user are required")
			}
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			// Keep the terminal for the quiz; only warnings and up reach the log.
			log = log.WithOptions(zap.IncreaseLevel(zap.WarnLevel))

			d, err := buildDeps(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer d.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Starting %q for %s. Type q to stop early.\n", quizName, username)
			presenter := console.NewPresenter(cmd.InOrStdin(), out)
			defer presenter.Close()
			_, err = d.quizzes.Play(cmd.Context(), quizName, username, presenter)
			return err
		},
	}
	cmd.Flags().StringVar(&quizName, "quiz", "", "quiz name, as listed by content lint")
	cmd.Flags().StringVar(&username, "user", os.Getenv("USER"), "learner username")
	return cmd
}
