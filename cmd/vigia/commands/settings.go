package commands

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/vigia-dou/vigia/settings"
)

// SettingsCmd groups the system email configuration operations.
var SettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage the system email configuration",
	Long: `Manage the backend's email configuration: the primary delivery
address and the alert list. Updates replace the configuration
wholesale.

Examples:
  vigia settings show
  vigia settings set --primary main@example.com --alerts a@x.com,b@y.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// SettingsShowCmd prints the current configuration.
var SettingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current email configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAuthedApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.settings.Get(cmd.Context())
		if err != nil {
			return err
		}

		pterm.Printfln("Primary email: %s", s.PrimaryEmail)
		if len(s.AlertEmails) > 0 {
			pterm.Printfln("Alert emails:  %s", strings.Join(s.AlertEmails, ", "))
		} else {
			pterm.Println("Alert emails:  none")
		}
		if s.LastChangedBy != "" {
			pterm.Printfln("Last changed:  %s by %s", s.LastChangedAt, s.LastChangedBy)
		}
		if s.AccessedBy != "" {
			pterm.Printfln("Last accessed: %s", s.AccessedBy)
		}
		return nil
	},
}

// SettingsSetCmd replaces the configuration.
var SettingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Replace the email configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		primary, _ := cmd.Flags().GetString("primary")
		alerts, _ := cmd.Flags().GetStringSlice("alerts")

		a, err := newAuthedApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		// Unspecified flags keep their current values.
		current, err := a.settings.Get(cmd.Context())
		if err != nil {
			return err
		}
		if primary == "" {
			primary = current.PrimaryEmail
		}
		if !cmd.Flags().Changed("alerts") {
			alerts = current.AlertEmails
		}

		if err := a.settings.Replace(cmd.Context(), &settings.Settings{
			PrimaryEmail: primary,
			AlertEmails:  alerts,
		}); err != nil {
			return err
		}
		pterm.Success.Println("Settings replaced")
		return nil
	},
}

func init() {
	SettingsSetCmd.Flags().String("primary", "", "Primary delivery email")
	SettingsSetCmd.Flags().StringSlice("alerts", nil, "Alert emails (comma separated, replaces the list)")

	SettingsCmd.AddCommand(SettingsShowCmd)
	SettingsCmd.AddCommand(SettingsSetCmd)
}
