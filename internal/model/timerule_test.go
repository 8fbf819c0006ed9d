package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMinute(t *testing.T, s string) MinuteOfDay {
	t.Helper()
	m, err := ParseMinuteOfDay(s)
	require.NoError(t, err)
	return m
}

func TestParseMinuteOfDay(t *testing.T) {
	m, err := ParseMinuteOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, MinuteOfDay(9*60+30), m)
	assert.Equal(t, "09:30", m.String())

	_, err = ParseMinuteOfDay("24:00")
	assert.Error(t, err)
	_, err = ParseMinuteOfDay("nonsense")
	assert.Error(t, err)
}

func TestMinuteOfDayJSON(t *testing.T) {
	out, err := json.Marshal(MinuteOfDay(17 * 60))
	require.NoError(t, err)
	assert.Equal(t, `"17:00"`, string(out))

	var m MinuteOfDay
	require.NoError(t, json.Unmarshal([]byte(`"08:15"`), &m))
	assert.Equal(t, MinuteOfDay(8*60+15), m)
}

func TestRecurringRuleActiveAt(t *testing.T) {
	rule := RecurringRule{
		Days:  []time.Weekday{time.Wednesday},
		Start: mustMinute(t, "09:00"),
		End:   mustMinute(t, "17:00"),
	}

	// 2024-01-03 is a Wednesday, 2024-01-04 a Thursday
	wed := func(hour, min int) time.Time {
		return time.Date(2024, 1, 3, hour, min, 0, 0, time.UTC)
	}

	assert.True(t, rule.ActiveAt(wed(9, 0)), "active exactly at start")
	assert.True(t, rule.ActiveAt(wed(12, 30)))
	assert.True(t, rule.ActiveAt(wed(16, 59)))
	assert.False(t, rule.ActiveAt(wed(17, 0)), "inactive exactly at end")
	assert.False(t, rule.ActiveAt(wed(8, 59)))
	assert.False(t, rule.ActiveAt(time.Date(2024, 1, 4, 10, 0, 0, 0, time.UTC)), "wrong weekday")
}

func TestSpecificDateRuleActiveAt(t *testing.T) {
	date := time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)

	exact := SpecificDateRule{Date: date, Start: mustMinute(t, "00:00"), End: mustMinute(t, "23:59")}
	assert.True(t, exact.ActiveAt(time.Date(2024, 12, 25, 10, 0, 0, 0, time.UTC)))
	assert.False(t, exact.ActiveAt(time.Date(2031, 12, 25, 10, 0, 0, 0, time.UTC)), "year must match")
	assert.False(t, exact.ActiveAt(time.Date(2024, 12, 26, 10, 0, 0, 0, time.UTC)))

	annual := SpecificDateRule{Date: date, Start: mustMinute(t, "00:00"), End: mustMinute(t, "23:59"), Annual: true}
	assert.True(t, annual.ActiveAt(time.Date(2031, 12, 25, 10, 0, 0, 0, time.UTC)), "year ignored when annual")
	assert.False(t, annual.ActiveAt(time.Date(2031, 11, 25, 10, 0, 0, 0, time.UTC)))
}

func TestRecurringRuleValidate(t *testing.T) {
	rule := RecurringRule{Start: mustMinute(t, "09:00"), End: mustMinute(t, "17:00")}
	err := rule.Validate()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "at least one day")

	rule.Days = []time.Weekday{time.Monday}
	rule.End = rule.Start
	err = rule.Validate()
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "start time must be before end time")

	rule.End = mustMinute(t, "17:00")
	assert.NoError(t, rule.Validate())
}

func TestSpecificDateRuleValidate(t *testing.T) {
	rule := SpecificDateRule{Start: mustMinute(t, "09:00"), End: mustMinute(t, "17:00")}
	var verr *ValidationError
	require.ErrorAs(t, rule.Validate(), &verr)
	assert.Equal(t, "date", verr.Field)

	rule.Date = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, rule.Validate())

	rule.End = rule.Start
	assert.Error(t, rule.Validate())
}

func TestTriggerAt(t *testing.T) {
	rule := RecurringRule{
		Days:  []time.Weekday{time.Wednesday},
		Start: mustMinute(t, "08:00"),
		End:   mustMinute(t, "09:00"),
	}

	at := time.Date(2024, 1, 3, 8, 7, 0, 0, time.UTC)
	trigger, ok := rule.TriggerAt(at)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC), trigger)

	_, ok = rule.TriggerAt(time.Date(2024, 1, 4, 8, 7, 0, 0, time.UTC))
	assert.False(t, ok, "no occurrence on a Thursday")
}

func TestEffectivePriority(t *testing.T) {
	recurring := ScheduledAssignment{
		Priority: 100,
		Rule:     RecurringRule{Days: []time.Weekday{time.Monday}, Start: 0, End: 60},
	}
	specific := ScheduledAssignment{
		Priority: 0,
		Rule:     SpecificDateRule{Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Start: 0, End: 60},
	}

	assert.Equal(t, 100, recurring.EffectivePriority())
	assert.Equal(t, 1000, specific.EffectivePriority())
	assert.Greater(t, specific.EffectivePriority(), recurring.EffectivePriority(),
		"any specific-date rule outranks any recurring rule")
}

func TestAssignmentValidatePriorityBounds(t *testing.T) {
	a := ScheduledAssignment{
		Priority: 101,
		Rule:     RecurringRule{Days: []time.Weekday{time.Monday}, Start: 0, End: 60},
	}
	var verr *ValidationError
	require.ErrorAs(t, a.Validate(), &verr)
	assert.Equal(t, "priority", verr.Field)

	a.Priority = -1
	assert.Error(t, a.Validate())

	a.Priority = 100
	assert.NoError(t, a.Validate())
}

func TestActionValidate(t *testing.T) {
	rule := RecurringRule{Days: []time.Weekday{time.Monday}, Start: 0, End: 60}

	a := ScheduledAction{Action: "reboot", Rule: rule}
	assert.Error(t, a.Validate())

	a = ScheduledAction{Action: ActionSetInput, Rule: rule}
	var verr *ValidationError
	require.ErrorAs(t, a.Validate(), &verr)
	assert.Equal(t, "input", verr.Field)

	hdmi := "hdmi1"
	a.Input = &hdmi
	assert.NoError(t, a.Validate())

	a.CatchUpWindowMinutes = -5
	assert.Error(t, a.Validate())
}
