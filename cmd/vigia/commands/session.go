package commands

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/vigia-dou/vigia/errors"
)

// LoginCmd authenticates against the backend and persists the session.
var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the monitor backend",
	Long: `Authenticate against the monitor backend and persist the session.

The bearer token is stored locally and re-verified on the next command,
so a single login survives across invocations until it expires.

Examples:
  vigia login --username alice
  vigia login -u alice -p secret   # password on the command line (avoid)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		if username == "" {
			value, err := pterm.DefaultInteractiveTextInput.Show("Username")
			if err != nil {
				return errors.Wrap(err, "failed to read username")
			}
			username = strings.TrimSpace(value)
		}
		if password == "" {
			value, err := pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password")
			if err != nil {
				return errors.Wrap(err, "failed to read password")
			}
			password = value
		}
		if username == "" || password == "" {
			return errors.New("username and password are required")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.guard.Login(cmd.Context(), username, password); err != nil {
			pterm.Error.Printfln("Login failed: %v", err)
			return err
		}

		user, _ := a.guard.CurrentUser()
		pterm.Success.Printfln("Logged in as %s (%s)", user.Username, user.Role)
		return nil
	},
}

// LogoutCmd discards the persisted session.
var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the persisted session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.guard.Logout()
		pterm.Success.Println("Logged out")
		return nil
	},
}

// WhoamiCmd shows the authenticated operator.
var WhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated operator",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAuthedApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		user, _ := a.guard.CurrentUser()
		pterm.Info.Printfln("%s (%s)", user.Username, user.Role)
		return nil
	},
}

// PasswdCmd rotates the operator's password.
var PasswdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the operator's password",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAuthedApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		current, err := pterm.DefaultInteractiveTextInput.WithMask("*").Show("Current password")
		if err != nil {
			return errors.Wrap(err, "failed to read password")
		}
		next, err := pterm.DefaultInteractiveTextInput.WithMask("*").Show("New password")
		if err != nil {
			return errors.Wrap(err, "failed to read password")
		}
		confirm, err := pterm.DefaultInteractiveTextInput.WithMask("*").Show("Repeat new password")
		if err != nil {
			return errors.Wrap(err, "failed to read password")
		}
		if next != confirm {
			return errors.New("new passwords do not match")
		}
		if len(next) < 6 {
			return errors.NewValidationError("new password must be at least 6 characters")
		}

		if err := a.client.ChangePassword(cmd.Context(), current, next); err != nil {
			return err
		}
		pterm.Success.Println("Password changed")
		return nil
	},
}

func init() {
	LoginCmd.Flags().StringP("username", "u", "", "Operator username")
	LoginCmd.Flags().StringP("password", "p", "", "Operator password (prompted when omitted)")
}
