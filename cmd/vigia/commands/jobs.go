package commands

import (
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/vigia-dou/vigia/errors"
	"github.com/vigia-dou/vigia/schedule"
)

// JobsCmd groups the scheduled-job operations.
var JobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage scheduled gazette searches",
	Long: `Manage the scheduled gazette searches kept by the backend.

Each job fires at a fixed wall-clock time (America/Sao_Paulo) on the
weekdays it is filtered to, searching a window that reaches back the
configured number of days and ends on the trigger day. An empty weekday
filter means the job fires every day.

Examples:
  vigia jobs ls
  vigia jobs create --terms licitação,pregão --time 08:00 --weekdays monday,friday
  vigia jobs toggle 3
  vigia jobs window 3 --date 2024-06-10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// JobsLsCmd lists the schedule.
var JobsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List scheduled jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAuthedApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		coll, err := a.jobs.List(cmd.Context())
		if err != nil {
			return err
		}

		rows := pterm.TableData{{"ID", "Terms", "Time", "Weekdays", "Lookback", "Email", "Active"}}
		for _, job := range coll.Jobs {
			rows = append(rows, []string{
				strconv.FormatInt(job.ID, 10),
				strings.Join(job.SearchTerms, ", "),
				job.TriggerTime,
				formatWeekdays(job.Weekdays),
				strconv.Itoa(job.LookbackDays),
				job.NotifyEmail,
				formatActive(job.Active),
			})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
			return err
		}

		pterm.Printfln("%d jobs (%d active, %d inactive)",
			coll.TotalJobs, coll.ActiveJobs, coll.InactiveJobs)
		if coll.LastExecution != "" {
			pterm.Printfln("Last execution: %s", coll.LastExecution)
		}
		return nil
	},
}

// JobsCreateCmd creates a job.
var JobsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a scheduled job",
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := specFromFlags(cmd)
		if err != nil {
			return err
		}

		a, err := newAuthedApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		job, err := a.jobs.Create(cmd.Context(), spec)
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Created job %d (%s at %s)",
			job.ID, strings.Join(job.SearchTerms, ", "), job.TriggerTime)
		return nil
	},
}

// JobsUpdateCmd replaces a job's specification.
var JobsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace a scheduled job's specification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseJobID(args[0])
		if err != nil {
			return err
		}
		spec, err := specFromFlags(cmd)
		if err != nil {
			return err
		}

		a, err := newAuthedApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		job, err := a.jobs.Update(cmd.Context(), id, spec)
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Updated job %d", job.ID)
		return nil
	},
}

// JobsToggleCmd flips a job's active flag.
var JobsToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Activate or deactivate a job, preserving its settings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseJobID(args[0])
		if err != nil {
			return err
		}

		a, err := newAuthedApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		job, err := a.jobs.Toggle(cmd.Context(), id)
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Job %d is now %s", job.ID, formatActive(job.Active))
		return nil
	},
}

// JobsRmCmd deletes a job.
var JobsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a scheduled job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseJobID(args[0])
		if err != nil {
			return err
		}

		a, err := newAuthedApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.jobs.Delete(cmd.Context(), id); err != nil {
			return err
		}
		pterm.Success.Printfln("Deleted job %d", id)
		return nil
	},
}

// JobsWindowCmd previews the search window a job would use on a date.
var JobsWindowCmd = &cobra.Command{
	Use:   "window <id>",
	Short: "Show the search window a job resolves to on a date",
	Long: `Show whether a job fires on a calendar date and, if it does, the
inclusive date range it would search. Defaults to today in
America/Sao_Paulo.

Example:
  vigia jobs window 3 --date 2024-06-10`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseJobID(args[0])
		if err != nil {
			return err
		}
		dateFlag, _ := cmd.Flags().GetString("date")

		candidate := time.Now()
		if dateFlag != "" {
			parsed, err := time.ParseInLocation(schedule.DateLayout, dateFlag, schedule.Location())
			if err != nil {
				return errors.NewValidationError("date %q is not YYYY-MM-DD", dateFlag)
			}
			candidate = parsed
		}

		a, err := newAuthedApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		coll, err := a.jobs.List(cmd.Context())
		if err != nil {
			return err
		}
		var job *schedule.Job
		for _, j := range coll.Jobs {
			if j.ID == id {
				job = j
				break
			}
		}
		if job == nil {
			return errors.NewNotFoundError("job %d", id)
		}

		window := schedule.Resolve(job, candidate)
		if !window.Fires {
			pterm.Info.Printfln("Job %d does not fire on %s (%s)",
				id, schedule.FormatDate(candidate), formatWeekdays(job.Weekdays))
			return nil
		}
		pterm.Info.Printfln("Job %d fires on %s at %s, searching %s to %s (%d days)",
			id, schedule.FormatDate(candidate), job.TriggerTime,
			schedule.FormatDate(window.From), schedule.FormatDate(window.To), window.Days())
		return nil
	},
}

func specFromFlags(cmd *cobra.Command) (schedule.Spec, error) {
	terms, _ := cmd.Flags().GetStringSlice("terms")
	triggerTime, _ := cmd.Flags().GetString("time")
	weekdays, _ := cmd.Flags().GetStringSlice("weekdays")
	lookback, _ := cmd.Flags().GetInt("lookback")
	email, _ := cmd.Flags().GetString("email")
	inactive, _ := cmd.Flags().GetBool("inactive")

	return schedule.Spec{
		SearchTerms:  terms,
		TriggerTime:  triggerTime,
		Weekdays:     weekdays,
		LookbackDays: lookback,
		NotifyEmail:  email,
		Active:       !inactive,
	}, nil
}

func parseJobID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, errors.NewValidationError("job id %q is not a number", arg)
	}
	return id, nil
}

func formatWeekdays(days []schedule.Weekday) string {
	if len(days) == 0 {
		return "every day"
	}
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = string(d)
	}
	return strings.Join(names, ", ")
}

func formatActive(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

func addJobSpecFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("terms", nil, "Search terms (comma separated)")
	cmd.Flags().String("time", "", "Trigger time, HH:MM in America/Sao_Paulo")
	cmd.Flags().StringSlice("weekdays", nil, "Weekday filter, e.g. monday,friday (empty = every day)")
	cmd.Flags().Int("lookback", 0, "Days to reach back before the trigger day")
	cmd.Flags().String("email", "", "Notification email (empty = system primary)")
	cmd.Flags().Bool("inactive", false, "Create or leave the job deactivated")
}

func init() {
	addJobSpecFlags(JobsCreateCmd)
	addJobSpecFlags(JobsUpdateCmd)
	JobsWindowCmd.Flags().String("date", "", "Candidate date, YYYY-MM-DD (default today)")

	JobsCmd.AddCommand(JobsLsCmd)
	JobsCmd.AddCommand(JobsCreateCmd)
	JobsCmd.AddCommand(JobsUpdateCmd)
	JobsCmd.AddCommand(JobsToggleCmd)
	JobsCmd.AddCommand(JobsRmCmd)
	JobsCmd.AddCommand(JobsWindowCmd)
}
