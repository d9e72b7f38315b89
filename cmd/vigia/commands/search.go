package commands

import (
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/vigia-dou/vigia/schedule"
	"github.com/vigia-dou/vigia/search"
)

// SearchCmd groups on-demand search operations.
var SearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run on-demand gazette searches",
	Long: `Run an on-demand gazette search and review past runs.

Only one search runs at a time: a second invocation while one is in
flight fails immediately instead of queueing, and schedule or settings
changes are refused for the duration.

Examples:
  vigia search run --terms licitação --from 2024-06-08 --to 2024-06-10
  vigia search history --limit 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// SearchRunCmd executes one search.
var SearchRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a search now",
	RunE: func(cmd *cobra.Command, args []string) error {
		terms, _ := cmd.Flags().GetStringSlice("terms")
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		email, _ := cmd.Flags().GetString("email")

		// Default to today when no range is given.
		today := schedule.FormatDate(time.Now())
		if from == "" {
			from = today
		}
		if to == "" {
			to = today
		}

		a, err := newAuthedApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		spinner, _ := pterm.DefaultSpinner.Start("Searching " + from + " to " + to + "...")
		run, err := a.runner.Run(cmd.Context(), search.Request{
			Terms:       terms,
			FromDate:    from,
			ToDate:      to,
			NotifyEmail: email,
		})
		if spinner != nil {
			_ = spinner.Stop()
		}
		if err != nil {
			return err
		}

		switch run.Outcome {
		case search.OutcomeSuccess:
			pterm.Success.Println(run.Status)
		case search.OutcomeLimit:
			pterm.Warning.Println(run.Status)
		case search.OutcomeEmpty:
			pterm.Info.Println(run.Status)
		default:
			pterm.Info.Println(run.Status)
		}
		if run.TotalResults != nil {
			pterm.Printfln("  Results: %d (emailed %d, link-only %d)",
				*run.TotalResults, intOrZero(run.Emailed), intOrZero(run.LinkOnly))
		}
		pterm.Printfln("  Duration: %s", run.Duration.Round(time.Millisecond))
		return nil
	},
}

// SearchHistoryCmd lists locally recorded runs.
var SearchHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List past search runs recorded locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.history.RecentRuns(limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			pterm.Info.Println("No recorded runs")
			return nil
		}

		rows := pterm.TableData{{"Started", "Terms", "Range", "Outcome", "Results", "Duration"}}
		for _, run := range runs {
			results := "-"
			if run.TotalResults != nil {
				results = strconv.Itoa(*run.TotalResults)
			}
			rows = append(rows, []string{
				run.StartedAt.In(schedule.Location()).Format("2006-01-02 15:04"),
				strings.Join(run.Terms, ", "),
				run.FromDate + ".." + run.ToDate,
				string(run.Outcome),
				results,
				run.Duration.Round(time.Millisecond).String(),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func init() {
	SearchRunCmd.Flags().StringSlice("terms", nil, "Search terms (comma separated)")
	SearchRunCmd.Flags().String("from", "", "Start date, YYYY-MM-DD (default today)")
	SearchRunCmd.Flags().String("to", "", "End date, YYYY-MM-DD (default today)")
	SearchRunCmd.Flags().String("email", "", "Notification email (empty = system primary)")
	SearchHistoryCmd.Flags().Int("limit", 20, "Maximum runs to show")

	SearchCmd.AddCommand(SearchRunCmd)
	SearchCmd.AddCommand(SearchHistoryCmd)
}
