package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/vigia-dou/vigia/config"
	"github.com/vigia-dou/vigia/errors"
)

// ConfigCmd groups local configuration operations.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage local vigia configuration",
	Long: `Manage the local configuration file. Settings can also come from
VIGIA_* environment variables and a project-level vigia.toml.

Examples:
  vigia config show
  vigia config set --base-url https://monitor.example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// ConfigShowCmd prints the effective configuration.
var ConfigShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}

		pterm.Printfln("Config file:         %s", config.Path())
		pterm.Printfln("Base URL:            %s", cfg.Server.BaseURL)
		pterm.Printfln("Timeout:             %ds", cfg.Server.TimeoutSeconds)
		pterm.Printfln("Requests per minute: %d", cfg.Server.RequestsPerMinute)
		pterm.Printfln("Database:            %s", cfg.Database.Path)
		pterm.Printfln("Watch interval:      %ds", cfg.Watch.IntervalSeconds)
		pterm.Printfln("JSON logs:           %v", cfg.Log.JSON)
		return nil
	},
}

// ConfigSetCmd updates and persists configuration values.
var ConfigSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update configuration values",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}

		if v, _ := cmd.Flags().GetString("base-url"); v != "" {
			cfg.Server.BaseURL = v
		}
		if cmd.Flags().Changed("timeout") {
			cfg.Server.TimeoutSeconds, _ = cmd.Flags().GetInt("timeout")
		}
		if cmd.Flags().Changed("rpm") {
			cfg.Server.RequestsPerMinute, _ = cmd.Flags().GetInt("rpm")
		}
		if v, _ := cmd.Flags().GetString("database"); v != "" {
			cfg.Database.Path = v
		}
		if cmd.Flags().Changed("watch-interval") {
			cfg.Watch.IntervalSeconds, _ = cmd.Flags().GetInt("watch-interval")
		}

		if err := config.Save(cfg, config.Path()); err != nil {
			return err
		}
		pterm.Success.Printfln("Configuration saved to %s", config.Path())
		return nil
	},
}

func init() {
	ConfigSetCmd.Flags().String("base-url", "", "Backend base URL")
	ConfigSetCmd.Flags().Int("timeout", 0, "Request timeout in seconds")
	ConfigSetCmd.Flags().Int("rpm", 0, "Request rate limit per minute")
	ConfigSetCmd.Flags().String("database", "", "Local database path")
	ConfigSetCmd.Flags().Int("watch-interval", 0, "Watch daemon interval in seconds")

	ConfigCmd.AddCommand(ConfigShowCmd)
	ConfigCmd.AddCommand(ConfigSetCmd)
}
