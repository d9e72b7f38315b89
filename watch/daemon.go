package watch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vigia-dou/vigia/errors"
	"github.com/vigia-dou/vigia/schedule"
	"github.com/vigia-dou/vigia/search"
)

// JobSource lists the scheduled jobs. The API client implements it.
type JobSource interface {
	ListJobs(ctx context.Context) (*schedule.Collection, error)
}

// SearchRunner executes one search under the execution lock.
type SearchRunner interface {
	Run(ctx context.Context, req search.Request) (*search.Run, error)
}

// Config contains daemon settings.
type Config struct {
	// Interval is how often the schedule is evaluated.
	Interval time.Duration
	// RetainFires is how long fire records are kept before pruning.
	RetainFires time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    30 * time.Second,
		RetainFires: 30 * 24 * time.Hour,
	}
}

// Daemon periodically evaluates the active schedule and fires due jobs.
// A job is due once its trigger time has passed on a day its weekday
// filter admits; each (job, local day) pair fires at most once. A job
// whose trigger passed while the daemon was down still fires on the
// first tick of that day.
type Daemon struct {
	source JobSource
	runner SearchRunner
	fires  *FireStore

	interval time.Duration
	retain   time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	logger   *zap.SugaredLogger

	mu         sync.Mutex
	lastTickAt time.Time
	ticks      int64
	lastPrune  string // local day of last prune
}

// NewDaemon creates a watch daemon with a background parent context.
func NewDaemon(source JobSource, runner SearchRunner, fires *FireStore, cfg Config, logger *zap.SugaredLogger) *Daemon {
	return NewDaemonWithContext(context.Background(), source, runner, fires, cfg, logger)
}

// NewDaemonWithContext creates a watch daemon under a parent context.
func NewDaemonWithContext(ctx context.Context, source JobSource, runner SearchRunner, fires *FireStore, cfg Config, logger *zap.SugaredLogger) *Daemon {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.RetainFires <= 0 {
		cfg.RetainFires = DefaultConfig().RetainFires
	}
	daemonCtx, cancel := context.WithCancel(ctx)
	return &Daemon{
		source:   source,
		runner:   runner,
		fires:    fires,
		interval: cfg.Interval,
		retain:   cfg.RetainFires,
		ctx:      daemonCtx,
		cancel:   cancel,
		logger:   logger,
	}
}

// Start begins the evaluation loop.
func (d *Daemon) Start() {
	d.wg.Add(1)
	go d.run()
	d.logger.Infow("Watch daemon started", "interval", d.interval)
}

// Stop stops the loop and waits for an in-flight tick to finish.
func (d *Daemon) Stop() {
	d.cancel()
	d.wg.Wait()
	d.logger.Infow("Watch daemon stopped")
}

func (d *Daemon) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case tickTime := <-ticker.C:
			d.mu.Lock()
			d.lastTickAt = tickTime
			d.ticks++
			d.mu.Unlock()

			if err := d.tick(tickTime); err != nil {
				d.logger.Warnw("Watch tick error", "error", err)
			}
		}
	}
}

// tick evaluates the schedule once against now.
func (d *Daemon) tick(now time.Time) error {
	local := now.In(schedule.Location())
	today := schedule.FormatDate(local)

	d.pruneIfDayChanged(local, today)

	coll, err := d.source.ListJobs(d.ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list scheduled jobs")
	}

	for _, job := range coll.Jobs {
		select {
		case <-d.ctx.Done():
			return d.ctx.Err()
		default:
		}

		if !job.Active {
			continue
		}

		window, due := d.evaluate(job, local)
		if !due {
			continue
		}

		fired, err := d.fires.AlreadyFired(job.ID, today)
		if err != nil {
			d.logger.Warnw("Failed to check fire record", "job_id", job.ID, "error", err)
			continue
		}
		if fired {
			continue
		}

		if err := d.fire(job, window, today); errors.Is(err, errors.ErrAlreadyRunning) {
			// Another search holds the lock. Leave the whole tick's
			// remainder for the next interval rather than racing it.
			d.logger.Debugw("Execution lock held, deferring due jobs", "job_id", job.ID)
			return nil
		}
	}
	return nil
}

// evaluate reports whether job is due at the local instant and the
// window it must search.
func (d *Daemon) evaluate(job *schedule.Job, local time.Time) (schedule.Window, bool) {
	hour, minute, err := job.TriggerClock()
	if err != nil {
		d.logger.Warnw("Skipping job with malformed trigger time",
			"job_id", job.ID, "trigger_time", job.TriggerTime)
		return schedule.Window{}, false
	}

	window := schedule.Resolve(job, local)
	if !window.Fires {
		return schedule.Window{}, false
	}

	if local.Hour() < hour || (local.Hour() == hour && local.Minute() < minute) {
		return schedule.Window{}, false
	}
	return window, true
}

// fire runs the job's search and records the firing. The fire record
// is written whenever the lock was acquired, success or not, so a
// failing backend does not retrigger the job all day.
func (d *Daemon) fire(job *schedule.Job, window schedule.Window, today string) error {
	run, err := d.runner.Run(d.ctx, search.Request{
		Terms:       job.SearchTerms,
		FromDate:    schedule.FormatDate(window.From),
		ToDate:      schedule.FormatDate(window.To),
		NotifyEmail: job.NotifyEmail,
	})
	if errors.Is(err, errors.ErrAlreadyRunning) {
		return err
	}

	runID := ""
	if run != nil {
		runID = run.ID
	}
	if markErr := d.fires.MarkFired(job.ID, today, runID); markErr != nil {
		d.logger.Errorw("Failed to record job fire", "job_id", job.ID, "error", markErr)
	}

	if err != nil {
		d.logger.Errorw("Scheduled search failed",
			"job_id", job.ID,
			"from", schedule.FormatDate(window.From),
			"to", schedule.FormatDate(window.To),
			"error", err)
		return nil
	}

	d.logger.Infow("Scheduled search fired",
		"job_id", job.ID,
		"run_id", runID,
		"outcome", run.Outcome,
		"from", schedule.FormatDate(window.From),
		"to", schedule.FormatDate(window.To))
	return nil
}

func (d *Daemon) pruneIfDayChanged(local time.Time, today string) {
	d.mu.Lock()
	alreadyPruned := d.lastPrune == today
	if !alreadyPruned {
		d.lastPrune = today
	}
	d.mu.Unlock()
	if alreadyPruned {
		return
	}

	cutoff := schedule.FormatDate(local.Add(-d.retain))
	if n, err := d.fires.PruneBefore(cutoff); err != nil {
		d.logger.Warnw("Failed to prune fire records", "error", err)
	} else if n > 0 {
		d.logger.Debugw("Pruned fire records", "removed", n, "before", cutoff)
	}
}
