package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, Location())
}

func TestResolveMondayWithLookback(t *testing.T) {
	job := &Job{
		SearchTerms:  []string{"licitação"},
		TriggerTime:  "08:00",
		Weekdays:     []Weekday{Monday, Friday},
		LookbackDays: 2,
		Active:       true,
	}

	// 2024-06-10 is a Monday
	w := Resolve(job, date(2024, time.June, 10))
	require.True(t, w.Fires)
	assert.Equal(t, "2024-06-08", FormatDate(w.From))
	assert.Equal(t, "2024-06-10", FormatDate(w.To))
	assert.Equal(t, 3, w.Days())
}

func TestResolveTuesdayDoesNotFire(t *testing.T) {
	job := &Job{
		SearchTerms:  []string{"licitação"},
		TriggerTime:  "08:00",
		Weekdays:     []Weekday{Monday, Friday},
		LookbackDays: 2,
	}

	// 2024-06-11 is a Tuesday
	w := Resolve(job, date(2024, time.June, 11))
	assert.False(t, w.Fires)
	assert.Equal(t, 0, w.Days())
}

func TestEmptyWeekdaysFiresEveryDay(t *testing.T) {
	job := &Job{TriggerTime: "08:00"}

	// A full week starting on a Monday
	for i := 0; i < 7; i++ {
		w := Resolve(job, date(2024, time.June, 10+i))
		assert.True(t, w.Fires, "day offset %d", i)
	}
}

func TestWindowSpansLookbackPlusOne(t *testing.T) {
	for _, lookback := range []int{0, 1, 2, 7, 30} {
		job := &Job{TriggerTime: "08:00", LookbackDays: lookback}
		candidate := date(2024, time.March, 15)

		w := Resolve(job, candidate)
		require.True(t, w.Fires)
		assert.Equal(t, lookback+1, w.Days(), "lookback %d", lookback)
		assert.Equal(t, candidate, w.To, "to_date must equal the candidate date")
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	job := &Job{TriggerTime: "06:30", Weekdays: []Weekday{Wednesday}, LookbackDays: 3}
	candidate := date(2024, time.June, 12) // a Wednesday

	first := Resolve(job, candidate)
	second := Resolve(job, candidate)
	assert.Equal(t, first, second)
}

func TestLateEveningDoesNotCrossIntoNextDay(t *testing.T) {
	job := &Job{TriggerTime: "23:59"}

	// 23:59 São Paulo on June 10 is 02:59 UTC June 11. The local date,
	// not the UTC date, decides the window.
	late := time.Date(2024, time.June, 11, 2, 59, 0, 0, time.UTC)
	w := Resolve(job, late)
	require.True(t, w.Fires)
	assert.Equal(t, "2024-06-10", FormatDate(w.To))

	// And just past local midnight stays on June 11.
	early := time.Date(2024, time.June, 11, 3, 1, 0, 0, time.UTC)
	w = Resolve(job, early)
	assert.Equal(t, "2024-06-11", FormatDate(w.To))
}

func TestWindowMayPrecedeMonthBoundary(t *testing.T) {
	job := &Job{TriggerTime: "08:00", LookbackDays: 5}

	w := Resolve(job, date(2024, time.March, 2))
	require.True(t, w.Fires)
	assert.Equal(t, "2024-02-26", FormatDate(w.From))
	assert.Equal(t, "2024-03-02", FormatDate(w.To))
}
