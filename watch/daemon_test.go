package watch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vigia-dou/vigia/errors"
	vigiatesting "github.com/vigia-dou/vigia/internal/testing"
	"github.com/vigia-dou/vigia/schedule"
	"github.com/vigia-dou/vigia/search"
)

type fakeSource struct {
	jobs []*schedule.Job
	err  error
}

func (f *fakeSource) ListJobs(ctx context.Context) (*schedule.Collection, error) {
	if f.err != nil {
		return nil, f.err
	}
	coll := &schedule.Collection{Jobs: f.jobs}
	coll.Recount()
	return coll, nil
}

type fakeRunner struct {
	requests []search.Request
	err      error
}

func (f *fakeRunner) Run(ctx context.Context, req search.Request) (*search.Run, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &search.Run{ID: "run-1", Outcome: search.OutcomeSuccess}, nil
}

func newTestDaemon(t *testing.T, source *fakeSource, runner *fakeRunner) (*Daemon, *FireStore) {
	t.Helper()
	db := vigiatesting.CreateTestDB(t)
	fires := NewFireStore(db)
	d := NewDaemon(source, runner, fires, DefaultConfig(), zap.NewNop().Sugar())
	t.Cleanup(d.cancel)
	return d, fires
}

// localTime builds an instant in América/São Paulo.
func localTime(y int, m time.Month, day, hour, min int) time.Time {
	return time.Date(y, m, day, hour, min, 0, 0, schedule.Location())
}

func mondayJob() *schedule.Job {
	return &schedule.Job{
		ID:           1,
		SearchTerms:  []string{"licitação"},
		TriggerTime:  "08:00",
		Weekdays:     []schedule.Weekday{schedule.Monday},
		LookbackDays: 2,
		Active:       true,
	}
}

func TestFiresDueJobWithResolvedWindow(t *testing.T) {
	runner := &fakeRunner{}
	d, fires := newTestDaemon(t, &fakeSource{jobs: []*schedule.Job{mondayJob()}}, runner)

	// 2024-06-10 is a Monday.
	require.NoError(t, d.tick(localTime(2024, 6, 10, 8, 0)))

	require.Len(t, runner.requests, 1)
	assert.Equal(t, "2024-06-08", runner.requests[0].FromDate)
	assert.Equal(t, "2024-06-10", runner.requests[0].ToDate)
	assert.Equal(t, []string{"licitação"}, runner.requests[0].Terms)

	fired, err := fires.AlreadyFired(1, "2024-06-10")
	require.NoError(t, err)
	assert.True(t, fired)
}

func TestNotDueBeforeTriggerTime(t *testing.T) {
	runner := &fakeRunner{}
	d, _ := newTestDaemon(t, &fakeSource{jobs: []*schedule.Job{mondayJob()}}, runner)

	require.NoError(t, d.tick(localTime(2024, 6, 10, 7, 59)))
	assert.Empty(t, runner.requests)

	// Catches up later the same day.
	require.NoError(t, d.tick(localTime(2024, 6, 10, 14, 30)))
	assert.Len(t, runner.requests, 1)
}

func TestWeekdayFilterBlocksFiring(t *testing.T) {
	runner := &fakeRunner{}
	d, _ := newTestDaemon(t, &fakeSource{jobs: []*schedule.Job{mondayJob()}}, runner)

	// 2024-06-11 is a Tuesday.
	require.NoError(t, d.tick(localTime(2024, 6, 11, 8, 0)))
	assert.Empty(t, runner.requests)
}

func TestInactiveJobNeverFires(t *testing.T) {
	job := mondayJob()
	job.Active = false
	runner := &fakeRunner{}
	d, _ := newTestDaemon(t, &fakeSource{jobs: []*schedule.Job{job}}, runner)

	require.NoError(t, d.tick(localTime(2024, 6, 10, 8, 0)))
	assert.Empty(t, runner.requests)
}

func TestFiresOncePerLocalDay(t *testing.T) {
	runner := &fakeRunner{}
	d, _ := newTestDaemon(t, &fakeSource{jobs: []*schedule.Job{mondayJob()}}, runner)

	require.NoError(t, d.tick(localTime(2024, 6, 10, 8, 0)))
	require.NoError(t, d.tick(localTime(2024, 6, 10, 8, 1)))
	require.NoError(t, d.tick(localTime(2024, 6, 10, 23, 59)))
	assert.Len(t, runner.requests, 1)

	// A week later the same weekday fires again.
	require.NoError(t, d.tick(localTime(2024, 6, 17, 8, 0)))
	assert.Len(t, runner.requests, 2)
}

func TestLockContentionDefersWithoutFireRecord(t *testing.T) {
	runner := &fakeRunner{err: errors.ErrAlreadyRunning}
	d, fires := newTestDaemon(t, &fakeSource{jobs: []*schedule.Job{mondayJob()}}, runner)

	require.NoError(t, d.tick(localTime(2024, 6, 10, 8, 0)))
	require.Len(t, runner.requests, 1)

	fired, err := fires.AlreadyFired(1, "2024-06-10")
	require.NoError(t, err)
	assert.False(t, fired)

	// Lock freed: the next tick retries and records the fire.
	runner.err = nil
	require.NoError(t, d.tick(localTime(2024, 6, 10, 8, 1)))
	assert.Len(t, runner.requests, 2)

	fired, err = fires.AlreadyFired(1, "2024-06-10")
	require.NoError(t, err)
	assert.True(t, fired)
}

func TestBackendFailureStillMarksFired(t *testing.T) {
	runner := &fakeRunner{err: errors.WrapNetwork(errors.New("connection refused"), "search")}
	d, fires := newTestDaemon(t, &fakeSource{jobs: []*schedule.Job{mondayJob()}}, runner)

	require.NoError(t, d.tick(localTime(2024, 6, 10, 8, 0)))
	require.Len(t, runner.requests, 1)

	// A failed run must not retrigger all day long.
	fired, err := fires.AlreadyFired(1, "2024-06-10")
	require.NoError(t, err)
	assert.True(t, fired)

	require.NoError(t, d.tick(localTime(2024, 6, 10, 8, 1)))
	assert.Len(t, runner.requests, 1)
}

func TestEmptyWeekdaysFiresEveryDay(t *testing.T) {
	job := mondayJob()
	job.Weekdays = nil
	runner := &fakeRunner{}
	d, _ := newTestDaemon(t, &fakeSource{jobs: []*schedule.Job{job}}, runner)

	for day := 10; day <= 16; day++ {
		require.NoError(t, d.tick(localTime(2024, 6, day, 8, 0)))
	}
	assert.Len(t, runner.requests, 7)
}

func TestFireStoreMarkIsIdempotent(t *testing.T) {
	db := vigiatesting.CreateTestDB(t)
	fires := NewFireStore(db)

	require.NoError(t, fires.MarkFired(1, "2024-06-10", "run-a"))
	require.NoError(t, fires.MarkFired(1, "2024-06-10", "run-b"))

	fired, err := fires.AlreadyFired(1, "2024-06-10")
	require.NoError(t, err)
	assert.True(t, fired)
}

func TestPruneBeforeRemovesOldRecords(t *testing.T) {
	db := vigiatesting.CreateTestDB(t)
	fires := NewFireStore(db)

	require.NoError(t, fires.MarkFired(1, "2024-05-01", ""))
	require.NoError(t, fires.MarkFired(1, "2024-06-10", ""))

	n, err := fires.PruneBefore("2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	fired, err := fires.AlreadyFired(1, "2024-06-10")
	require.NoError(t, err)
	assert.True(t, fired)
}
