package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// RuleType tags the two TimeRule variants.
type RuleType string

const (
	RuleRecurring    RuleType = "recurring"
	RuleSpecificDate RuleType = "specific_date"
)

// ValidationError reports a malformed rule or schedule field. It is returned
// unmodified all the way to the API caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// MinuteOfDay is a time of day in minutes since midnight, parsed from "HH:MM".
type MinuteOfDay int

// ParseMinuteOfDay parses a "HH:MM" string.
func ParseMinuteOfDay(s string) (MinuteOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return MinuteOfDay(h*60 + m), nil
}

// MinuteOf truncates an instant to its minute of day.
func MinuteOf(t time.Time) MinuteOfDay {
	return MinuteOfDay(t.Hour()*60 + t.Minute())
}

func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

func (m MinuteOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *MinuteOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMinuteOfDay(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// TimeRule is the temporal pattern a schedule entry is active under.
// Exactly one of RecurringRule and SpecificDateRule implements it for any
// stored entry; the store materializes a single variant from the type tag,
// so a rule can never carry both shapes.
type TimeRule interface {
	Type() RuleType

	// ActiveAt reports whether the rule covers t. The daily window is
	// half-open: active at start, inactive at end.
	ActiveAt(t time.Time) bool

	// TriggerAt returns the start-boundary instant for the occurrence on
	// t's calendar date, in t's location. ok is false when the rule has no
	// occurrence that day.
	TriggerAt(t time.Time) (trigger time.Time, ok bool)

	// Validate checks the variant's own invariants.
	Validate() error

	// Window returns the rule's daily [start, end) window.
	Window() (start, end MinuteOfDay)
}

// RecurringRule is active on a set of weekdays between Start and End.
type RecurringRule struct {
	Days  []time.Weekday `json:"days_of_week"`
	Start MinuteOfDay    `json:"start_time"`
	End   MinuteOfDay    `json:"end_time"`
}

func (r RecurringRule) Type() RuleType { return RuleRecurring }

func (r RecurringRule) ActiveAt(t time.Time) bool {
	if !r.matchesDay(t) {
		return false
	}
	m := MinuteOf(t)
	return m >= r.Start && m < r.End
}

func (r RecurringRule) TriggerAt(t time.Time) (time.Time, bool) {
	if !r.matchesDay(t) {
		return time.Time{}, false
	}
	return atMinute(t, r.Start), true
}

func (r RecurringRule) matchesDay(t time.Time) bool {
	wd := t.Weekday()
	for _, d := range r.Days {
		if d == wd {
			return true
		}
	}
	return false
}

func (r RecurringRule) Validate() error {
	if len(r.Days) == 0 {
		return &ValidationError{Field: "days_of_week", Reason: "at least one day is required"}
	}
	for _, d := range r.Days {
		if d < time.Sunday || d > time.Saturday {
			return &ValidationError{Field: "days_of_week", Reason: fmt.Sprintf("unknown weekday %d", d)}
		}
	}
	if r.Start >= r.End {
		return &ValidationError{Field: "time_window", Reason: "start time must be before end time"}
	}
	return nil
}

func (r RecurringRule) Window() (MinuteOfDay, MinuteOfDay) { return r.Start, r.End }

// SpecificDateRule is active on one calendar date between Start and End.
// When Annual is set only month and day are matched, year is ignored.
type SpecificDateRule struct {
	Date   time.Time   `json:"date"`
	Start  MinuteOfDay `json:"start_time"`
	End    MinuteOfDay `json:"end_time"`
	Annual bool        `json:"annual"`
}

func (r SpecificDateRule) Type() RuleType { return RuleSpecificDate }

func (r SpecificDateRule) ActiveAt(t time.Time) bool {
	if !r.matchesDate(t) {
		return false
	}
	m := MinuteOf(t)
	return m >= r.Start && m < r.End
}

func (r SpecificDateRule) TriggerAt(t time.Time) (time.Time, bool) {
	if !r.matchesDate(t) {
		return time.Time{}, false
	}
	return atMinute(t, r.Start), true
}

func (r SpecificDateRule) matchesDate(t time.Time) bool {
	if r.Annual {
		return t.Month() == r.Date.Month() && t.Day() == r.Date.Day()
	}
	ty, tm, td := t.Date()
	ry, rm, rd := r.Date.Date()
	return ty == ry && tm == rm && td == rd
}

func (r SpecificDateRule) Validate() error {
	if r.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "a date is required"}
	}
	if r.Start >= r.End {
		return &ValidationError{Field: "time_window", Reason: "start time must be before end time"}
	}
	return nil
}

func (r SpecificDateRule) Window() (MinuteOfDay, MinuteOfDay) { return r.Start, r.End }

// atMinute pins a minute-of-day onto t's calendar date in t's location.
func atMinute(t time.Time, m MinuteOfDay) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, int(m)/60, int(m)%60, 0, 0, t.Location())
}
