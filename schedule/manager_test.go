package schedule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vigia-dou/vigia/errors"
)

// fakeBackend keeps jobs in memory and assigns sequential IDs.
type fakeBackend struct {
	jobs   map[int64]*Job
	nextID int64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{jobs: make(map[int64]*Job), nextID: 1}
}

func (f *fakeBackend) ListJobs(ctx context.Context) (*Collection, error) {
	c := &Collection{}
	for _, j := range f.jobs {
		copied := *j
		c.Jobs = append(c.Jobs, &copied)
	}
	c.Recount()
	return c, nil
}

func (f *fakeBackend) CreateJob(ctx context.Context, job *Job) (*Job, error) {
	copied := *job
	copied.ID = f.nextID
	f.nextID++
	f.jobs[copied.ID] = &copied
	return &copied, nil
}

func (f *fakeBackend) UpdateJob(ctx context.Context, job *Job) (*Job, error) {
	if _, ok := f.jobs[job.ID]; !ok {
		return nil, errors.NewNotFoundError("job %d", job.ID)
	}
	copied := *job
	f.jobs[job.ID] = &copied
	return &copied, nil
}

func (f *fakeBackend) DeleteJob(ctx context.Context, id int64) error {
	if _, ok := f.jobs[id]; !ok {
		return errors.NewNotFoundError("job %d", id)
	}
	delete(f.jobs, id)
	return nil
}

// heldGate always reports the execution lock as taken.
type heldGate struct{}

func (heldGate) Held() bool { return true }

type testActor struct{ name string }

func (a testActor) Username() string { return a.name }

func newTestManager(backend Backend, gate Gate) *Manager {
	return NewManager(backend, gate, testActor{name: "operador"}, zap.NewNop().Sugar())
}

func TestCreateAssignsIDAndAudit(t *testing.T) {
	m := newTestManager(newFakeBackend(), nil)

	job, err := m.Create(context.Background(), Spec{
		SearchTerms: []string{"licitação"},
		TriggerTime: "08:00",
		Active:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), job.ID)
	assert.Equal(t, "operador", job.LastModifiedBy)
	assert.False(t, job.LastModifiedAt.IsZero())
}

func TestCreateRejectsInvalidSpec(t *testing.T) {
	backend := newFakeBackend()
	m := newTestManager(backend, nil)

	_, err := m.Create(context.Background(), Spec{TriggerTime: "08:00"})
	assert.True(t, errors.IsValidationError(err))
	assert.Empty(t, backend.jobs, "invalid spec must never reach the backend")
}

func TestMutationsFailBusyWhileLockHeld(t *testing.T) {
	backend := newFakeBackend()
	seeded, err := newTestManager(backend, nil).Create(context.Background(), Spec{
		SearchTerms: []string{"edital"},
		TriggerTime: "09:00",
	})
	require.NoError(t, err)

	m := newTestManager(backend, heldGate{})
	ctx := context.Background()

	_, err = m.Create(ctx, Spec{SearchTerms: []string{"x"}, TriggerTime: "10:00"})
	assert.True(t, errors.IsBusyError(err))

	_, err = m.Update(ctx, seeded.ID, Spec{SearchTerms: []string{"x"}, TriggerTime: "10:00"})
	assert.True(t, errors.IsBusyError(err))

	_, err = m.Toggle(ctx, seeded.ID)
	assert.True(t, errors.IsBusyError(err))

	err = m.Delete(ctx, seeded.ID)
	assert.True(t, errors.IsBusyError(err))

	// Reads stay allowed
	_, err = m.List(ctx)
	assert.NoError(t, err)

	// And the discarded mutations left no trace
	assert.Len(t, backend.jobs, 1)
}

func TestToggleFlipsOnlyActive(t *testing.T) {
	backend := newFakeBackend()
	m := newTestManager(backend, nil)
	ctx := context.Background()

	created, err := m.Create(ctx, Spec{
		SearchTerms:  []string{"pregão"},
		TriggerTime:  "07:30",
		Weekdays:     []string{"monday"},
		LookbackDays: 2,
		Active:       true,
	})
	require.NoError(t, err)

	toggled, err := m.Toggle(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Active)
	assert.Equal(t, created.SearchTerms, toggled.SearchTerms)
	assert.Equal(t, created.TriggerTime, toggled.TriggerTime)
	assert.Equal(t, created.LookbackDays, toggled.LookbackDays)

	// A second toggle reverts: the flip is read-then-write, not idempotent.
	again, err := m.Toggle(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, again.Active)
}

func TestToggleUnknownJob(t *testing.T) {
	m := newTestManager(newFakeBackend(), nil)

	_, err := m.Toggle(context.Background(), 99)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestDeleteUnknownJob(t *testing.T) {
	m := newTestManager(newFakeBackend(), nil)

	err := m.Delete(context.Background(), 12)
	assert.True(t, errors.IsNotFoundError(err))
}
