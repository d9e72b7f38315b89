package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vigia-dou/vigia/errors"
)

// Backend is the slice of the remote API the manager needs. The HTTP
// client implements it; tests substitute a fake.
type Backend interface {
	ListJobs(ctx context.Context) (*Collection, error)
	CreateJob(ctx context.Context, job *Job) (*Job, error)
	UpdateJob(ctx context.Context, job *Job) (*Job, error)
	DeleteJob(ctx context.Context, id int64) error
}

// Gate reports whether the client-wide execution lock is held. While it
// is, schedule mutations fail with ErrBusy and are discarded, not queued.
type Gate interface {
	Held() bool
}

// Actor names the operator for the advisory audit trail.
type Actor interface {
	Username() string
}

// Manager validates, normalizes and routes scheduled-job operations to
// the backend. All mutations require the execution gate to be free.
type Manager struct {
	backend Backend
	gate    Gate
	actor   Actor
	logger  *zap.SugaredLogger
}

// NewManager creates a schedule manager. gate and actor may be nil when
// there is no execution lock or no authenticated operator to record.
func NewManager(backend Backend, gate Gate, actor Actor, logger *zap.SugaredLogger) *Manager {
	return &Manager{
		backend: backend,
		gate:    gate,
		actor:   actor,
		logger:  logger,
	}
}

// List fetches the current job collection from the backend.
func (m *Manager) List(ctx context.Context) (*Collection, error) {
	return m.backend.ListJobs(ctx)
}

// Create validates and normalizes spec, then creates the job. Returns
// the stored job with its backend-assigned ID.
func (m *Manager) Create(ctx context.Context, spec Spec) (*Job, error) {
	if err := m.checkGate(); err != nil {
		return nil, err
	}

	job, err := spec.Normalize()
	if err != nil {
		return nil, err
	}
	m.stampAudit(job)

	created, err := m.backend.CreateJob(ctx, job)
	if err != nil {
		return nil, errors.Wrap(err, "create job")
	}

	m.logger.Infow("Scheduled job created",
		"id", created.ID,
		"terms", created.SearchTerms,
		"trigger_time", created.TriggerTime)
	return created, nil
}

// Update validates and normalizes spec and replaces job id with it.
func (m *Manager) Update(ctx context.Context, id int64, spec Spec) (*Job, error) {
	if err := m.checkGate(); err != nil {
		return nil, err
	}

	job, err := spec.Normalize()
	if err != nil {
		return nil, err
	}
	job.ID = id
	m.stampAudit(job)

	updated, err := m.backend.UpdateJob(ctx, job)
	if err != nil {
		return nil, errors.Wrapf(err, "update job %d", id)
	}

	m.logger.Infow("Scheduled job updated", "id", id)
	return updated, nil
}

// Toggle flips the active flag of job id without touching any other
// field. The flip is read-then-write: the current state is fetched
// first, so two sequential toggles revert each other.
func (m *Manager) Toggle(ctx context.Context, id int64) (*Job, error) {
	if err := m.checkGate(); err != nil {
		return nil, err
	}

	collection, err := m.backend.ListJobs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "toggle: list jobs")
	}

	var job *Job
	for _, j := range collection.Jobs {
		if j.ID == id {
			job = j
			break
		}
	}
	if job == nil {
		return nil, errors.NewNotFoundError("job %d", id)
	}

	job.Active = !job.Active
	m.stampAudit(job)

	updated, err := m.backend.UpdateJob(ctx, job)
	if err != nil {
		return nil, errors.Wrapf(err, "toggle job %d", id)
	}

	m.logger.Infow("Scheduled job toggled", "id", id, "active", updated.Active)
	return updated, nil
}

// Delete removes job id permanently. Irreversible.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	if err := m.checkGate(); err != nil {
		return err
	}

	if err := m.backend.DeleteJob(ctx, id); err != nil {
		return errors.Wrapf(err, "delete job %d", id)
	}

	m.logger.Infow("Scheduled job deleted", "id", id)
	return nil
}

func (m *Manager) checkGate() error {
	if m.gate != nil && m.gate.Held() {
		return errors.ErrBusy
	}
	return nil
}

// stampAudit records who changed the job and when. Advisory metadata:
// the backend keeps its own authoritative trail.
func (m *Manager) stampAudit(job *Job) {
	if m.actor != nil {
		job.LastModifiedBy = m.actor.Username()
	}
	job.LastModifiedAt = time.Now().In(Location())
}
