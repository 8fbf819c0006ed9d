package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/luminode/caster/internal/model"
)

// Conflict reports a pair of assignments that could be active at the same
// time, along with which of the two the resolver would pick.
type Conflict struct {
	FirstID    int    `json:"first_id"`
	FirstName  string `json:"first_name"`
	SecondID   int    `json:"second_id"`
	SecondName string `json:"second_name"`
	WinnerID   int    `json:"winner_id"`
	Reason     string `json:"reason"`
}

// FindConflicts inspects a device's enabled assignments pairwise. Purely
// diagnostic, nothing is mutated. Recurring vs specific-date pairs are
// conservatively reported as potential conflicts: checking whether the
// specific date ever lands on one of the recurring weekdays is not attempted.
func FindConflicts(assignments []model.ScheduledAssignment) []Conflict {
	enabled := make([]model.ScheduledAssignment, 0, len(assignments))
	for _, a := range assignments {
		if a.Enabled && a.Rule != nil {
			enabled = append(enabled, a)
		}
	}

	var conflicts []Conflict
	for i := 0; i < len(enabled); i++ {
		for j := i + 1; j < len(enabled); j++ {
			a, b := enabled[i], enabled[j]
			overlap, reason := rulesMayOverlap(a.Rule, b.Rule)
			if !overlap {
				continue
			}
			conflicts = append(conflicts, Conflict{
				FirstID:    a.ID,
				FirstName:  a.Name,
				SecondID:   b.ID,
				SecondName: b.Name,
				WinnerID:   pickWinner(a, b).ID,
				Reason:     reason,
			})
		}
	}
	return conflicts
}

// pickWinner applies the resolver's ordering to exactly two assignments.
func pickWinner(a, b model.ScheduledAssignment) model.ScheduledAssignment {
	pa, pb := a.EffectivePriority(), b.EffectivePriority()
	if pa != pb {
		if pa > pb {
			return a
		}
		return b
	}
	if a.ID < b.ID {
		return a
	}
	return b
}

func rulesMayOverlap(a, b model.TimeRule) (bool, string) {
	ra, aRecurring := a.(model.RecurringRule)
	rb, bRecurring := b.(model.RecurringRule)

	switch {
	case aRecurring && bRecurring:
		days := sharedWeekdays(ra.Days, rb.Days)
		if len(days) == 0 {
			return false, ""
		}
		if !windowsOverlap(a, b) {
			return false, ""
		}
		return true, fmt.Sprintf("both recurring rules cover %s with overlapping time windows", weekdayList(days))

	case !aRecurring && !bRecurring:
		da := a.(model.SpecificDateRule)
		db := b.(model.SpecificDateRule)
		if !datesCoincide(da, db) {
			return false, ""
		}
		if !windowsOverlap(a, b) {
			return false, ""
		}
		return true, "both rules target the same calendar date with overlapping time windows"

	default:
		// Conservative approximation for mixed pairs.
		return true, "a recurring rule and a specific-date rule may coincide"
	}
}

// datesCoincide respects the annual flag on either side: an annual rule
// recurs every year, so month and day equality is enough.
func datesCoincide(a, b model.SpecificDateRule) bool {
	if a.Annual || b.Annual {
		return a.Date.Month() == b.Date.Month() && a.Date.Day() == b.Date.Day()
	}
	ay, am, ad := a.Date.Date()
	by, bm, bd := b.Date.Date()
	return ay == by && am == bm && ad == bd
}

func windowsOverlap(a, b model.TimeRule) bool {
	s1, e1 := a.Window()
	s2, e2 := b.Window()
	return s1 < e2 && s2 < e1
}

func sharedWeekdays(a, b []time.Weekday) []time.Weekday {
	var shared []time.Weekday
	for _, da := range a {
		for _, db := range b {
			if da == db {
				shared = append(shared, da)
				break
			}
		}
	}
	return shared
}

func weekdayList(days []time.Weekday) string {
	out := ""
	for i, d := range days {
		if i > 0 {
			out += ", "
		}
		out += d.String()
	}
	return out
}

// Preview answers "what would this device show at instant X" without
// touching any state.
type Preview struct {
	ActiveSchedule       *model.ScheduledAssignment `json:"active_schedule,omitempty"`
	ConflictingSchedules []Conflict                 `json:"conflicting_schedules"`
	DefaultPlaylistID    *int                       `json:"default_playlist_id"`
}

// PreviewSchedule resolves a device's schedule at an arbitrary instant and
// reports overlapping rules, for diagnostic queries.
func (e *Engine) PreviewSchedule(ctx context.Context, deviceID int, at time.Time) (Preview, error) {
	device, err := e.store.GetDevice(ctx, deviceID)
	if err != nil {
		return Preview{}, err
	}
	assignments, err := e.store.ListDeviceAssignments(ctx, deviceID)
	if err != nil {
		return Preview{}, err
	}
	return Preview{
		ActiveSchedule:       Resolve(assignments, at),
		ConflictingSchedules: FindConflicts(assignments),
		DefaultPlaylistID:    device.CurrentPlaylistID,
	}, nil
}
