package commands

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/vigia-dou/vigia/config"
	"github.com/vigia-dou/vigia/logger"
	"github.com/vigia-dou/vigia/watch"
)

// WatchCmd runs the local trigger daemon in the foreground.
var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the local trigger daemon",
	Long: `Run the local trigger daemon in foreground mode.

The daemon evaluates the active schedule every interval and fires due
jobs through the backend, at most once per job per local calendar day.
Configuration changes to vigia.toml are picked up without a restart.

Runs until interrupted (Ctrl+C).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAuthedApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		watchCfg := watch.DefaultConfig()
		if a.cfg.Watch.IntervalSeconds > 0 {
			watchCfg.Interval = time.Duration(a.cfg.Watch.IntervalSeconds) * time.Second
		}

		fires := watch.NewFireStore(a.database)
		daemon := watch.NewDaemonWithContext(cmd.Context(), a.client, a.runner, fires, watchCfg, logger.Logger)

		// Pick up config file edits without a restart.
		watcher, err := config.NewWatcher(config.Path())
		if err != nil {
			logger.Logger.Warnw("Config watcher unavailable", "error", err)
		} else {
			watcher.OnReload(func(cfg *config.Config) error {
				logger.Logger.Infow("Configuration reloaded",
					"interval_seconds", cfg.Watch.IntervalSeconds)
				return nil
			})
			watcher.Start()
			defer func() { _ = watcher.Stop() }()
		}

		daemon.Start()

		user, _ := a.guard.CurrentUser()
		pterm.Info.Printfln("Watch daemon started as %s", user.Username)
		pterm.Printfln("  Backend:  %s", a.cfg.Server.BaseURL)
		pterm.Printfln("  Interval: %v", watchCfg.Interval)
		pterm.Println()
		pterm.Info.Println("Press Ctrl+C to stop")

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		pterm.Println()
		pterm.Info.Println("Stopping watch daemon...")
		daemon.Stop()
		pterm.Success.Println("Watch daemon stopped")
		return nil
	},
}
