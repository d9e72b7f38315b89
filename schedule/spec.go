package schedule

import (
	"time"

	"github.com/vigia-dou/vigia/errors"
	"github.com/vigia-dou/vigia/internal/util"
)

// Spec is an operator-supplied job specification, as it arrives from a
// form or a CLI flag set, before validation and normalization.
type Spec struct {
	SearchTerms  []string
	TriggerTime  string
	Weekdays     []string
	LookbackDays int
	NotifyEmail  string
	Active       bool
}

// Normalize validates the spec and produces a clean Job (without an ID;
// the backend assigns those). Terms are trimmed and deduplicated with
// first-occurrence order preserved; weekdays are deduplicated into
// canonical monday..sunday order.
func (s Spec) Normalize() (*Job, error) {
	terms := util.TrimDedup(s.SearchTerms)
	if len(terms) == 0 {
		return nil, errors.NewValidationError("at least one search term is required")
	}

	if s.TriggerTime == "" {
		return nil, errors.NewValidationError("trigger time is required")
	}
	if _, err := time.Parse("15:04", s.TriggerTime); err != nil {
		return nil, errors.NewValidationError("trigger time %q is not HH:MM", s.TriggerTime)
	}

	if s.LookbackDays < 0 {
		return nil, errors.NewValidationError("lookback days must be >= 0, got %d", s.LookbackDays)
	}

	if s.NotifyEmail != "" && !util.ValidEmail(s.NotifyEmail) {
		return nil, errors.NewValidationError("notify email %q is not a valid address", s.NotifyEmail)
	}

	weekdays, err := normalizeWeekdays(s.Weekdays)
	if err != nil {
		return nil, err
	}

	return &Job{
		SearchTerms:  terms,
		TriggerTime:  s.TriggerTime,
		Weekdays:     weekdays,
		LookbackDays: s.LookbackDays,
		NotifyEmail:  s.NotifyEmail,
		Active:       s.Active,
	}, nil
}

// normalizeWeekdays parses, deduplicates and orders a weekday filter.
// An empty input stays empty: that is the legal "every day" state.
func normalizeWeekdays(names []string) ([]Weekday, error) {
	if len(names) == 0 {
		return nil, nil
	}

	set := make(map[Weekday]struct{}, len(names))
	for _, name := range names {
		d, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		set[d] = struct{}{}
	}

	out := make([]Weekday, 0, len(set))
	for _, d := range weekdayOrder {
		if _, ok := set[d]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}
