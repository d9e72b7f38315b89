package schedule

import (
	"sync"
	"time"
)

// DateLayout is the wire format for gazette search dates.
const DateLayout = "2006-01-02"

var (
	locOnce sync.Once
	loc     *time.Location
)

// Location returns the America/Sao_Paulo calendar all window arithmetic
// uses. When the zone database is unavailable the fixed -03 offset is
// used instead; Brazil has not observed DST since 2019.
func Location() *time.Location {
	locOnce.Do(func() {
		l, err := time.LoadLocation("America/Sao_Paulo")
		if err != nil {
			l = time.FixedZone("-03", -3*60*60)
		}
		loc = l
	})
	return loc
}

// LocalDate normalizes an instant to midnight of its São Paulo calendar
// day. A candidate at 23:59 or 00:01 local must never drift into a
// neighboring day through UTC conversion, so conversion to the local
// zone always happens before the date is taken.
func LocalDate(t time.Time) time.Time {
	local := t.In(Location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Location())
}

// FormatDate renders a date in the backend's YYYY-MM-DD form.
func FormatDate(t time.Time) string {
	return t.In(Location()).Format(DateLayout)
}

// Window is the inclusive calendar-day range a firing job must search.
// From and To are midnights in America/Sao_Paulo.
type Window struct {
	Fires bool
	From  time.Time
	To    time.Time
}

// Days returns the number of calendar days the window spans, endpoints
// inclusive. Zero when the job does not fire.
func (w Window) Days() int {
	if !w.Fires {
		return 0
	}
	return int(w.To.Sub(w.From).Hours()/24) + 1
}

// Resolve computes whether job fires on the candidate date and, if so,
// the concrete [from, to] search range:
//
//	to   = candidate day
//	from = candidate day - lookback days
//
// so lookback n spans n+1 calendar days ending on the trigger day.
// When the weekday filter rejects the candidate the window is undefined
// and callers must not search. From may legally precede the job's
// creation date; no clamping happens here.
func Resolve(job *Job, candidate time.Time) Window {
	day := LocalDate(candidate)

	if !job.FiresOn(weekdayOf(day)) {
		return Window{Fires: false}
	}

	from := time.Date(day.Year(), day.Month(), day.Day()-job.LookbackDays, 0, 0, 0, 0, Location())
	return Window{
		Fires: true,
		From:  from,
		To:    day,
	}
}
