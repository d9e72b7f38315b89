// Package schedule defines the scheduled search job model, its
// validation rules and the execution-window resolver.
package schedule

import (
	"strings"
	"time"

	"github.com/vigia-dou/vigia/errors"
)

// Weekday is a day-of-week filter value as the backend spells it.
type Weekday string

// Weekday values, canonical order.
const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// canonical weekday order used when normalizing filter sets
var weekdayOrder = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseWeekday parses a weekday name, case-insensitively.
func ParseWeekday(s string) (Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, d := range weekdayOrder {
		if string(d) == name {
			return d, nil
		}
	}
	return "", errors.NewValidationError("unknown weekday %q", s)
}

// weekdayOf maps a time.Weekday to the backend's spelling.
func weekdayOf(t time.Time) Weekday {
	switch t.Weekday() {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

// Job is a persisted specification for a recurring automated search.
// The backend assigns IDs; jobs outlive any one login session.
type Job struct {
	ID          int64
	SearchTerms []string
	TriggerTime string    // "HH:MM" wall clock, America/Sao_Paulo
	Weekdays    []Weekday // empty set means "fires every day", never "fires never"
	// LookbackDays extends the search window backward: 0 means the
	// trigger day only, n means n+1 calendar days ending on the trigger day.
	LookbackDays int
	NotifyEmail  string // empty falls back to the system's primary email
	Active       bool

	// Advisory audit trail, not used for concurrency control.
	LastModifiedBy string
	LastModifiedAt time.Time
}

// FiresOn reports whether the job's weekday filter admits d.
func (j *Job) FiresOn(d Weekday) bool {
	if len(j.Weekdays) == 0 {
		return true
	}
	for _, wd := range j.Weekdays {
		if wd == d {
			return true
		}
	}
	return false
}

// TriggerClock parses the job's trigger time into hour and minute.
func (j *Job) TriggerClock() (hour, minute int, err error) {
	t, err := time.Parse("15:04", j.TriggerTime)
	if err != nil {
		return 0, 0, errors.NewValidationError("trigger time %q is not HH:MM", j.TriggerTime)
	}
	return t.Hour(), t.Minute(), nil
}

// Collection is a job listing plus the backend's summary counters.
type Collection struct {
	Jobs          []*Job
	TotalJobs     int
	ActiveJobs    int
	InactiveJobs  int
	LastExecution string
}

// Recount recomputes the summary counters from the job list. Used when
// the backend returned a bare sequence without counters.
func (c *Collection) Recount() {
	c.TotalJobs = len(c.Jobs)
	c.ActiveJobs = 0
	for _, j := range c.Jobs {
		if j.Active {
			c.ActiveJobs++
		}
	}
	c.InactiveJobs = c.TotalJobs - c.ActiveJobs
}
