package search

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vigia-dou/vigia/api"
	"github.com/vigia-dou/vigia/errors"
	"github.com/vigia-dou/vigia/internal/util"
	"github.com/vigia-dou/vigia/schedule"
)

// Outcome classifies a backend status line.
type Outcome string

const (
	// OutcomeSuccess means results were found and delivered in full.
	OutcomeSuccess Outcome = "success"
	// OutcomeLimit means results were found but delivery hit a cap.
	OutcomeLimit Outcome = "limit"
	// OutcomeEmpty means the search ran and found nothing.
	OutcomeEmpty Outcome = "empty"
	// OutcomeFailed means the search did not complete.
	OutcomeFailed Outcome = "failed"
	// OutcomeUnknown means the status line matched no known phrasing.
	OutcomeUnknown Outcome = "unknown"
)

// ClassifyStatus maps the backend's Portuguese status line onto an
// outcome. Matching is by substring because the backend embeds counts
// and dates in the line.
func ClassifyStatus(status string) Outcome {
	s := strings.ToLower(status)
	switch {
	case strings.Contains(s, "limite"):
		return OutcomeLimit
	case strings.Contains(s, "sucesso"):
		return OutcomeSuccess
	case strings.Contains(s, "nenhum resultado"):
		return OutcomeEmpty
	default:
		return OutcomeUnknown
	}
}

// Request is an on-demand search submission before normalization.
type Request struct {
	Terms       []string
	FromDate    string // YYYY-MM-DD
	ToDate      string // YYYY-MM-DD
	NotifyEmail string // empty falls back to the system's primary email
}

// Normalize validates the request in place: terms trimmed and
// deduplicated, dates parseable and ordered, email optional but valid.
func (r *Request) Normalize() error {
	r.Terms = util.TrimDedup(r.Terms)
	if len(r.Terms) == 0 {
		return errors.NewValidationError("at least one search term is required")
	}

	from, err := time.Parse(schedule.DateLayout, r.FromDate)
	if err != nil {
		return errors.NewValidationError("from date %q is not YYYY-MM-DD", r.FromDate)
	}
	to, err := time.Parse(schedule.DateLayout, r.ToDate)
	if err != nil {
		return errors.NewValidationError("to date %q is not YYYY-MM-DD", r.ToDate)
	}
	if to.Before(from) {
		return errors.NewValidationError("date range %s..%s is inverted", r.FromDate, r.ToDate)
	}

	if r.NotifyEmail != "" && !util.ValidEmail(r.NotifyEmail) {
		return errors.NewValidationError("notification email %q is not a valid address", r.NotifyEmail)
	}
	return nil
}

// Executor is the search slice of the remote API.
type Executor interface {
	ExecuteSearch(ctx context.Context, req api.SearchRequest) (*api.SearchResult, error)
}

// Runner executes searches under the client-wide lock and records each
// run in the local history.
type Runner struct {
	lock    *Lock
	backend Executor
	store   *Store // nil disables history
	logger  *zap.SugaredLogger
}

// NewRunner creates a search runner.
func NewRunner(lock *Lock, backend Executor, store *Store, logger *zap.SugaredLogger) *Runner {
	return &Runner{lock: lock, backend: backend, store: store, logger: logger}
}

// Run normalizes req, executes it under the execution lock and records
// the result. A second Run while one is in flight fails immediately
// with ErrAlreadyRunning. The lock is released on every exit path.
func (rn *Runner) Run(ctx context.Context, req Request) (*Run, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	if err := rn.lock.Acquire(); err != nil {
		return nil, err
	}
	defer rn.lock.Release()

	run := &Run{
		ID:          uuid.NewString(),
		Terms:       req.Terms,
		FromDate:    req.FromDate,
		ToDate:      req.ToDate,
		NotifyEmail: req.NotifyEmail,
		StartedAt:   time.Now(),
	}

	rn.logger.Infow("Executing search",
		"run_id", run.ID,
		"terms", len(run.Terms),
		"from", run.FromDate,
		"to", run.ToDate)

	result, err := rn.backend.ExecuteSearch(ctx, api.SearchRequest{
		SearchTerms: req.Terms,
		FromDate:    req.FromDate,
		ToDate:      req.ToDate,
		NotifyEmail: req.NotifyEmail,
	})
	run.Duration = time.Since(run.StartedAt)

	if err != nil {
		run.Outcome = OutcomeFailed
		run.Error = err.Error()
		rn.record(run)
		return nil, errors.Wrap(err, "search execution")
	}

	run.Status = result.Status
	run.Outcome = ClassifyStatus(result.Status)
	total := result.TotalFound()
	emailed := result.EmailedCount()
	linkOnly := result.OverflowCount()
	run.TotalResults = &total
	run.Emailed = &emailed
	run.LinkOnly = &linkOnly

	rn.record(run)

	rn.logger.Infow("Search finished",
		"run_id", run.ID,
		"outcome", run.Outcome,
		"total_results", total,
		"emailed", emailed,
		"link_only", linkOnly,
		"duration", run.Duration)
	return run, nil
}

// record writes the run to history. History failures never fail the
// search itself.
func (rn *Runner) record(run *Run) {
	if rn.store == nil {
		return
	}
	if err := rn.store.RecordRun(run); err != nil {
		rn.logger.Warnw("Failed to record search run", "run_id", run.ID, "error", err)
	}
}
