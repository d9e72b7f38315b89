package search

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/vigia-dou/vigia/errors"
)

// Run is one locally recorded search execution. The backend keeps its
// own activity log; this history exists so an operator can review past
// runs without a round trip.
type Run struct {
	ID           string
	Terms        []string
	FromDate     string
	ToDate       string
	NotifyEmail  string
	Status       string  // backend status line, verbatim
	Outcome      Outcome // classification of Status
	TotalResults *int
	Emailed      *int
	LinkOnly     *int
	Error        string
	StartedAt    time.Time
	Duration     time.Duration
}

// Store persists search runs to the local database.
type Store struct {
	db *sql.DB
}

// NewStore creates a search run store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// RecordRun inserts a completed run.
func (s *Store) RecordRun(run *Run) error {
	termsJSON, err := json.Marshal(run.Terms)
	if err != nil {
		return errors.Wrap(err, "failed to marshal search terms")
	}

	query := `
		INSERT INTO search_runs (
			id, terms, from_date, to_date, notify_email,
			status, outcome, total_results, emailed, link_only,
			error, started_at, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		run.ID,
		string(termsJSON),
		run.FromDate,
		run.ToDate,
		run.NotifyEmail,
		run.Status,
		string(run.Outcome),
		nullInt(run.TotalResults),
		nullInt(run.Emailed),
		nullInt(run.LinkOnly),
		run.Error,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.Duration.Milliseconds(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to record search run")
	}
	return nil
}

// RecentRuns returns the latest runs, newest first.
func (s *Store) RecentRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, terms, from_date, to_date, notify_email,
		       status, outcome, total_results, emailed, link_only,
		       error, started_at, duration_ms
		FROM search_runs
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query search runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate search runs")
	}
	return runs, nil
}

// GetRun retrieves one run by ID.
func (s *Store) GetRun(id string) (*Run, error) {
	query := `
		SELECT id, terms, from_date, to_date, notify_email,
		       status, outcome, total_results, emailed, link_only,
		       error, started_at, duration_ms
		FROM search_runs
		WHERE id = ?
	`

	row := s.db.QueryRow(query, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("search run %s", id)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var termsJSON, outcome, startedAt string
	var totalResults, emailed, linkOnly sql.NullInt64
	var durationMS int64

	err := row.Scan(
		&run.ID,
		&termsJSON,
		&run.FromDate,
		&run.ToDate,
		&run.NotifyEmail,
		&run.Status,
		&outcome,
		&totalResults,
		&emailed,
		&linkOnly,
		&run.Error,
		&startedAt,
		&durationMS,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan search run")
	}

	if err := json.Unmarshal([]byte(termsJSON), &run.Terms); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal search terms")
	}
	run.Outcome = Outcome(outcome)
	if ts, err := time.Parse(time.RFC3339, startedAt); err == nil {
		run.StartedAt = ts
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	if totalResults.Valid {
		v := int(totalResults.Int64)
		run.TotalResults = &v
	}
	if emailed.Valid {
		v := int(emailed.Int64)
		run.Emailed = &v
	}
	if linkOnly.Valid {
		v := int(linkOnly.Int64)
		run.LinkOnly = &v
	}
	return &run, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
