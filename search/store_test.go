package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigia-dou/vigia/errors"
	vigiatesting "github.com/vigia-dou/vigia/internal/testing"
	"github.com/vigia-dou/vigia/internal/util"
)

func TestStoreRoundTrip(t *testing.T) {
	db := vigiatesting.CreateTestDB(t)
	store := NewStore(db)

	run := &Run{
		ID:           "run-1",
		Terms:        []string{"licitação", "pregão"},
		FromDate:     "2024-06-08",
		ToDate:       "2024-06-10",
		NotifyEmail:  "who@example.com",
		Status:       "Busca concluída com sucesso",
		Outcome:      OutcomeSuccess,
		TotalResults: util.Ptr(12),
		Emailed:      util.Ptr(12),
		LinkOnly:     util.Ptr(0),
		StartedAt:    time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC),
		Duration:     1500 * time.Millisecond,
	}
	require.NoError(t, store.RecordRun(run))

	got, err := store.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, run.Terms, got.Terms)
	assert.Equal(t, OutcomeSuccess, got.Outcome)
	assert.Equal(t, 12, *got.TotalResults)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.True(t, got.StartedAt.Equal(run.StartedAt))
}

func TestGetRunNotFound(t *testing.T) {
	db := vigiatesting.CreateTestDB(t)
	store := NewStore(db)

	_, err := store.GetRun("missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestRecentRunsNewestFirst(t *testing.T) {
	db := vigiatesting.CreateTestDB(t)
	store := NewStore(db)

	base := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, store.RecordRun(&Run{
			ID:        id,
			Terms:     []string{"a"},
			FromDate:  "2024-06-08",
			ToDate:    "2024-06-10",
			Outcome:   OutcomeEmpty,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	runs, err := store.RecentRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "mid", runs[1].ID)

	// Nil counters survive the round trip as nil, not zero.
	assert.Nil(t, runs[0].TotalResults)
}
