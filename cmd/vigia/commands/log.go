package commands

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/vigia-dou/vigia/errors"
)

// LogCmd downloads the backend's activity log.
var LogCmd = &cobra.Command{
	Use:   "log",
	Short: "Download the backend activity log",
	Long: `Download the backend's activity log (logins, searches, schedule
changes) to a file or stdout.

Examples:
  vigia log                      # print to stdout
  vigia log --output registro.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		a, err := newAuthedApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if output == "" {
			return a.client.DownloadActivityLog(cmd.Context(), os.Stdout)
		}

		f, err := os.Create(output)
		if err != nil {
			return errors.Wrapf(err, "failed to create %s", output)
		}
		defer f.Close()

		if err := a.client.DownloadActivityLog(cmd.Context(), f); err != nil {
			return err
		}
		pterm.Success.Printfln("Activity log written to %s", output)
		return nil
	},
}

func init() {
	LogCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
}
