package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vigia-dou/vigia/cmd/vigia/commands"
	"github.com/vigia-dou/vigia/config"
	"github.com/vigia-dou/vigia/logger"
)

var rootCmd = &cobra.Command{
	Use:   "vigia",
	Short: "vigia - official gazette monitor client",
	Long: `vigia - client for the official gazette (DOU) monitor backend.

Schedules recurring gazette searches, runs on-demand searches, and
manages the notification email configuration. Scheduled jobs fire at
fixed wall-clock times in America/Sao_Paulo; an on-desk watch daemon
triggers them locally.

Available commands:
  login     - Authenticate against the backend
  jobs      - Manage scheduled gazette searches
  search    - Run on-demand searches and review history
  settings  - Manage the notification email configuration
  watch     - Run the local trigger daemon
  log       - Download the backend activity log
  config    - Manage local configuration

Examples:
  vigia login -u alice
  vigia jobs create --terms licitação --time 08:00 --weekdays monday
  vigia search run --terms pregão --from 2024-06-08 --to 2024-06-10
  vigia watch`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonLogs := false
		if cfg, err := config.Load(); err == nil {
			jsonLogs = cfg.Log.JSON
		}
		if err := logger.Initialize(jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commands.LoginCmd)
	rootCmd.AddCommand(commands.LogoutCmd)
	rootCmd.AddCommand(commands.WhoamiCmd)
	rootCmd.AddCommand(commands.PasswdCmd)
	rootCmd.AddCommand(commands.JobsCmd)
	rootCmd.AddCommand(commands.SearchCmd)
	rootCmd.AddCommand(commands.SettingsCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.LogCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
