// Package watch is the local trigger daemon: it evaluates the active
// schedule on a fixed interval and fires due jobs through the search
// runner, at most once per job per local calendar day.
package watch

import (
	"database/sql"
	"time"

	"github.com/vigia-dou/vigia/errors"
)

// FireStore records which (job, local day) pairs have already fired.
type FireStore struct {
	db *sql.DB
}

// NewFireStore creates a fire record store.
func NewFireStore(db *sql.DB) *FireStore {
	return &FireStore{db: db}
}

// AlreadyFired reports whether the job has fired on the given local
// calendar day (YYYY-MM-DD).
func (s *FireStore) AlreadyFired(jobID int64, fireDate string) (bool, error) {
	var one int
	err := s.db.QueryRow(
		`SELECT 1 FROM job_fires WHERE job_id = ? AND fire_date = ?`,
		jobID, fireDate,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "failed to query job fires")
	}
	return true, nil
}

// MarkFired records a firing. Re-marking the same (job, day) pair is a
// no-op so a crash between run and mark never double-counts.
func (s *FireStore) MarkFired(jobID int64, fireDate, runID string) error {
	_, err := s.db.Exec(
		`INSERT INTO job_fires (job_id, fire_date, fired_at, run_id)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(job_id, fire_date) DO NOTHING`,
		jobID, fireDate, time.Now().UTC().Format(time.RFC3339), runID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to mark job fired")
	}
	return nil
}

// PruneBefore deletes fire records older than the given local day.
// The table only exists for same-day dedup, so old rows are dead weight.
func (s *FireStore) PruneBefore(fireDate string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM job_fires WHERE fire_date < ?`, fireDate)
	if err != nil {
		return 0, errors.Wrap(err, "failed to prune job fires")
	}
	n, _ := res.RowsAffected()
	return n, nil
}
