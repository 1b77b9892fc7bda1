package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewSettingsCmd manages runtime settings in the configured store.
func NewSettingsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and change runtime settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := localDeps(cmd, *configPath)
			if err != nil {
				return err
			}
			defer d.Close()

			settings, err := d.settings.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tVALUE\tUPDATED\tDESCRIPTION")
			for _, s := range settings {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Key, s.Value, s.UpdatedAt.Format("2006-01-02 15:04:05"), s.Description)
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := localDeps(cmd, *configPath)
			if err != nil {
				return err
			}
			defer d.Close()

			setting, err := d.settings.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(setting)
		},
	})

	var description string
	set := &cobra.Command{
		Use:   "set <key> <json-value>",
		Short: "Create or replace a setting",
		Example: `  quiz-service settings set session.auto_reset '"15m"'
  quiz-service settings set quiz.exploratory-testing.timer 900`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := localDeps(cmd, *configPath)
			if err != nil {
				return err
			}
			defer d.Close()

			setting, err := d.settings.Upsert(cmd.Context(), args[0], json.RawMessage(args[1]), description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", setting.Key, setting.Value)
			return nil
		},
	}
	set.Flags().StringVar(&description, "description", "", "human readable description")
	cmd.AddCommand(set)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := localDeps(cmd, *configPath)
			if err != nil {
				return err
			}
			defer d.Close()
			return d.settings.Delete(cmd.Context(), args[0])
		},
	})
	return cmd
}

// localDeps wires the stores for one-shot commands and requires a database,
// since in-process settings would vanish on exit.
func localDeps(cmd *cobra.Command, configPath string) (*deps, error) {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Postgres.URL == "" {
		return nil, fmt.Errorf("postgres url not configured")
	}
	return buildDeps(cmd.Context(), cfg, log)
}
