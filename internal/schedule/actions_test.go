package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/luminode/caster/internal/model"
)

func morningAction(lastFired *time.Time) model.ScheduledAction {
	return model.ScheduledAction{
		ID:       1,
		DeviceID: 1,
		Action:   model.ActionPowerOn,
		Enabled:  true,
		Rule: model.RecurringRule{
			Days:  []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
			Start: 8 * 60, // trigger at 08:00
			End:   9 * 60,
		},
		CatchUpWindowMinutes: 10,
		LastFiredAt:          lastFired,
	}
}

// 2024-01-03 is a Wednesday
func wednesday(hour, min int) time.Time {
	return time.Date(2024, 1, 3, hour, min, 0, 0, time.UTC)
}

func TestShouldExecuteWithinCatchUpWindow(t *testing.T) {
	action := morningAction(nil)

	assert.True(t, ShouldExecute(action, wednesday(8, 0)), "fires at the trigger instant")
	assert.True(t, ShouldExecute(action, wednesday(8, 3)), "fires inside the window")
	assert.True(t, ShouldExecute(action, wednesday(8, 10)), "window bound is inclusive")
}

func TestShouldExecuteMissedWindow(t *testing.T) {
	action := morningAction(nil)

	assert.False(t, ShouldExecute(action, wednesday(8, 15)), "15 minutes late with a 10-minute window")
	assert.False(t, ShouldExecute(action, wednesday(7, 59)), "too early")
	assert.False(t, ShouldExecute(action, wednesday(12, 0)))
}

func TestShouldExecuteSuppressedAfterFiring(t *testing.T) {
	fired := wednesday(8, 3)
	action := morningAction(&fired)

	assert.False(t, ShouldExecute(action, wednesday(8, 7)), "already fired for this occurrence")

	// next day is a new occurrence with no record yet
	thursday := time.Date(2024, 1, 4, 8, 3, 0, 0, time.UTC)
	assert.True(t, ShouldExecute(action, thursday))
}

func TestShouldExecuteStaleCursorFromEarlierOccurrence(t *testing.T) {
	// fired yesterday; today's occurrence is fresh
	fired := time.Date(2024, 1, 2, 8, 1, 0, 0, time.UTC)
	action := morningAction(&fired)

	assert.True(t, ShouldExecute(action, wednesday(8, 5)))
}

func TestShouldExecuteDisabled(t *testing.T) {
	action := morningAction(nil)
	action.Enabled = false

	assert.False(t, ShouldExecute(action, wednesday(8, 3)))
}

func TestShouldExecuteWrongWeekday(t *testing.T) {
	action := morningAction(nil)
	saturday := time.Date(2024, 1, 6, 8, 3, 0, 0, time.UTC)

	assert.False(t, ShouldExecute(action, saturday))
}

func TestShouldExecuteSpecificDateRule(t *testing.T) {
	action := model.ScheduledAction{
		Action:  model.ActionPowerOff,
		Enabled: true,
		Rule: model.SpecificDateRule{
			Date:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
			Start:  22 * 60,
			End:    23 * 60,
			Annual: true,
		},
		CatchUpWindowMinutes: 5,
	}

	assert.True(t, ShouldExecute(action, time.Date(2030, 12, 31, 22, 2, 0, 0, time.UTC)),
		"annual rule matches any year")
	assert.False(t, ShouldExecute(action, time.Date(2030, 12, 30, 22, 2, 0, 0, time.UTC)))
}
