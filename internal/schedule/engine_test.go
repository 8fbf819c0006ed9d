package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminode/caster/internal/model"
)

type fakeStore struct {
	devices     []model.Device
	assignments map[int][]model.ScheduledAssignment
	actions     []ActionWithDevice
	failWrite   bool
}

func (s *fakeStore) InTick(_ context.Context, fn func(TickStore) error) error {
	staged := map[int]*int{}
	if err := fn(&fakeTick{store: s, staged: staged}); err != nil {
		return err
	}
	// commit
	for i := range s.devices {
		if pid, ok := staged[s.devices[i].ID]; ok {
			s.devices[i].CurrentPlaylistID = pid
		}
	}
	return nil
}

func (s *fakeStore) GetDevice(_ context.Context, id int) (model.Device, error) {
	for _, d := range s.devices {
		if d.ID == id {
			return d, nil
		}
	}
	return model.Device{}, errors.New("device not found")
}

func (s *fakeStore) ListDeviceAssignments(_ context.Context, deviceID int) ([]model.ScheduledAssignment, error) {
	return s.assignments[deviceID], nil
}

func (s *fakeStore) ListEnabledActions(_ context.Context) ([]ActionWithDevice, error) {
	out := make([]ActionWithDevice, 0, len(s.actions))
	for _, a := range s.actions {
		if a.Action.Enabled {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) ClaimAction(_ context.Context, id int, fn func(model.ScheduledAction) (time.Time, error)) error {
	for i := range s.actions {
		if s.actions[i].Action.ID != id {
			continue
		}
		firedAt, err := fn(s.actions[i].Action)
		if err != nil {
			return err
		}
		s.actions[i].Action.LastFiredAt = &firedAt
		return nil
	}
	return errors.New("action not found")
}

type fakeTick struct {
	store  *fakeStore
	staged map[int]*int
}

func (t *fakeTick) ListDevices(_ context.Context) ([]model.Device, error) {
	return append([]model.Device(nil), t.store.devices...), nil
}

func (t *fakeTick) ListEnabledAssignments(_ context.Context) (map[int][]model.ScheduledAssignment, error) {
	byDevice := make(map[int][]model.ScheduledAssignment)
	for deviceID, list := range t.store.assignments {
		for _, a := range list {
			if a.Enabled {
				byDevice[deviceID] = append(byDevice[deviceID], a)
			}
		}
	}
	return byDevice, nil
}

func (t *fakeTick) SetDeviceCurrentPlaylist(_ context.Context, deviceID int, playlistID *int) error {
	if t.store.failWrite {
		return errors.New("write failed")
	}
	t.staged[deviceID] = playlistID
	return nil
}

type fakeNotifier struct {
	changes     []model.ChangeRecord
	commands    []model.DeviceCommand
	dispatchErr error
}

func (n *fakeNotifier) PlaylistChanged(_ context.Context, change model.ChangeRecord) error {
	n.changes = append(n.changes, change)
	return nil
}

func (n *fakeNotifier) DispatchAction(_ context.Context, cmd model.DeviceCommand) error {
	if n.dispatchErr != nil {
		return n.dispatchErr
	}
	n.commands = append(n.commands, cmd)
	return nil
}

func intp(v int) *int { return &v }

func TestTickNoAssignmentsLeavesDeviceUntouched(t *testing.T) {
	store := &fakeStore{
		devices: []model.Device{
			{ID: 2, Name: "lobby", CurrentPlaylistID: intp(10)},
		},
		assignments: map[int][]model.ScheduledAssignment{},
	}
	notifier := &fakeNotifier{}
	engine := New(store, notifier)

	report, err := engine.EvaluateAllDevices(context.Background(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, report.EvaluatedCount)
	assert.Equal(t, 0, report.ActiveScheduleCount)
	assert.Equal(t, 0, report.ChangedCount)
	assert.Empty(t, report.Changes)
	assert.Empty(t, notifier.changes)
	assert.Equal(t, intp(10), store.devices[0].CurrentPlaylistID, "default playlist untouched")
}

func TestTickAppliesSpecificDateWinner(t *testing.T) {
	// 2025-12-25 is a Thursday, so the weekday rule also matches
	at := time.Date(2025, 12, 25, 10, 0, 0, 0, time.UTC)

	store := &fakeStore{
		devices: []model.Device{
			{ID: 1, Name: "lobby", CurrentPlaylistID: intp(1)},
		},
		assignments: map[int][]model.ScheduledAssignment{
			1: {
				{
					ID: 1, DeviceID: 1, PlaylistID: 1, Name: "weekdays", Priority: 0, Enabled: true,
					Rule: model.RecurringRule{
						Days:  []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
						Start: 9 * 60, End: 17 * 60,
					},
				},
				{
					ID: 2, DeviceID: 1, PlaylistID: 2, Name: "christmas", Priority: 0, Enabled: true,
					Rule: model.SpecificDateRule{
						Date: time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC),
						Start: 0, End: 23*60 + 59, Annual: true,
					},
				},
			},
		},
	}
	notifier := &fakeNotifier{}
	engine := New(store, notifier)

	report, err := engine.EvaluateAllDevices(context.Background(), at)
	require.NoError(t, err)

	assert.Equal(t, 1, report.ChangedCount)
	require.Len(t, report.Changes, 1)
	change := report.Changes[0]
	assert.Equal(t, 1, change.DeviceID)
	assert.Equal(t, "lobby", change.DeviceName)
	assert.Equal(t, intp(1), change.OldPlaylistID)
	assert.Equal(t, intp(2), change.NewPlaylistID)
	require.NotNil(t, change.ScheduleID)
	assert.Equal(t, 2, *change.ScheduleID)
	require.NotNil(t, change.ScheduleName)
	assert.Equal(t, "christmas", *change.ScheduleName)
	assert.Equal(t, at, change.ChangedAt)

	assert.Equal(t, intp(2), store.devices[0].CurrentPlaylistID)
	assert.Len(t, notifier.changes, 1)

	// a second tick at the same instant finds nothing to do
	report, err = engine.EvaluateAllDevices(context.Background(), at)
	require.NoError(t, err)
	assert.Equal(t, 0, report.ChangedCount)
	assert.Equal(t, 1, report.ActiveScheduleCount)
	assert.Len(t, notifier.changes, 1, "change detection is on playlist identity only")
}

func TestTickRollsBackOnPersistFailure(t *testing.T) {
	at := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC) // Wednesday

	store := &fakeStore{
		devices: []model.Device{
			{ID: 1, Name: "lobby", CurrentPlaylistID: intp(1)},
		},
		assignments: map[int][]model.ScheduledAssignment{
			1: {{
				ID: 1, DeviceID: 1, PlaylistID: 2, Enabled: true,
				Rule: model.RecurringRule{Days: []time.Weekday{time.Wednesday}, Start: 9 * 60, End: 17 * 60},
			}},
		},
		failWrite: true,
	}
	notifier := &fakeNotifier{}
	engine := New(store, notifier)

	_, err := engine.EvaluateAllDevices(context.Background(), at)
	require.Error(t, err, "persistence failure aborts the tick")
	assert.Equal(t, intp(1), store.devices[0].CurrentPlaylistID, "nothing committed")
	assert.Empty(t, notifier.changes, "nothing notified")
}

func TestTickIsolatesCorruptDevice(t *testing.T) {
	at := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC) // Wednesday

	store := &fakeStore{
		devices: []model.Device{
			{ID: 1, Name: "broken", CurrentPlaylistID: intp(1)},
			{ID: 2, Name: "healthy", CurrentPlaylistID: intp(1)},
		},
		assignments: map[int][]model.ScheduledAssignment{
			1: {{ID: 1, DeviceID: 1, PlaylistID: 3, Enabled: true, Rule: nil}},
			2: {{
				ID: 2, DeviceID: 2, PlaylistID: 2, Enabled: true,
				Rule: model.RecurringRule{Days: []time.Weekday{time.Wednesday}, Start: 9 * 60, End: 17 * 60},
			}},
		},
	}
	notifier := &fakeNotifier{}
	engine := New(store, notifier)

	report, err := engine.EvaluateAllDevices(context.Background(), at)
	require.NoError(t, err)

	assert.Equal(t, 2, report.EvaluatedCount)
	assert.Equal(t, 1, report.ErroredCount)
	assert.Equal(t, 1, report.ChangedCount, "healthy device still evaluated")
	assert.Equal(t, intp(1), store.devices[0].CurrentPlaylistID)
	assert.Equal(t, intp(2), store.devices[1].CurrentPlaylistID)
}

func TestFireDueActionsOncePerOccurrence(t *testing.T) {
	now := time.Date(2024, 1, 3, 8, 3, 0, 0, time.UTC) // Wednesday 08:03

	hw := "tv-abc"
	store := &fakeStore{
		actions: []ActionWithDevice{{
			Action: model.ScheduledAction{
				ID: 1, DeviceID: 1, Action: model.ActionPowerOn, Enabled: true,
				Rule: model.RecurringRule{
					Days:  []time.Weekday{time.Wednesday},
					Start: 8 * 60, End: 9 * 60,
				},
				CatchUpWindowMinutes: 10,
			},
			Device: model.Device{ID: 1, Name: "lobby", HardwareID: &hw},
		}},
	}
	notifier := &fakeNotifier{}
	engine := New(store, notifier)

	report, err := engine.FireDueActions(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, report.FiredCount)
	require.Len(t, notifier.commands, 1)
	assert.Equal(t, model.ActionPowerOn, notifier.commands[0].Action)
	assert.Equal(t, "tv-abc", notifier.commands[0].HardwareID)
	require.NotNil(t, store.actions[0].Action.LastFiredAt)
	assert.Equal(t, now, *store.actions[0].Action.LastFiredAt)

	// later in the same occurrence: cursor suppresses a second firing
	later := now.Add(4 * time.Minute)
	report, err = engine.FireDueActions(context.Background(), later)
	require.NoError(t, err)
	assert.Equal(t, 0, report.FiredCount)
	assert.Len(t, notifier.commands, 1)

	// next day is a new occurrence
	nextDay := now.Add(24 * time.Hour)
	report, err = engine.FireDueActions(context.Background(), nextDay)
	require.NoError(t, err)
	assert.Equal(t, 1, report.FiredCount)
	assert.Len(t, notifier.commands, 2)
}

func TestFireDueActionsFailedDispatchKeepsCursor(t *testing.T) {
	now := time.Date(2024, 1, 3, 8, 3, 0, 0, time.UTC)

	hw := "tv-abc"
	store := &fakeStore{
		actions: []ActionWithDevice{{
			Action: model.ScheduledAction{
				ID: 1, DeviceID: 1, Action: model.ActionPowerOff, Enabled: true,
				Rule: model.RecurringRule{
					Days:  []time.Weekday{time.Wednesday},
					Start: 8 * 60, End: 9 * 60,
				},
				CatchUpWindowMinutes: 10,
			},
			Device: model.Device{ID: 1, HardwareID: &hw},
		}},
	}
	notifier := &fakeNotifier{dispatchErr: errors.New("broker down")}
	engine := New(store, notifier)

	report, err := engine.FireDueActions(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ErroredCount)
	assert.Nil(t, store.actions[0].Action.LastFiredAt, "cursor only advances on confirmed dispatch")

	// dispatch recovers within the window, the occurrence is retried
	notifier.dispatchErr = nil
	report, err = engine.FireDueActions(context.Background(), now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, report.FiredCount)
	require.NotNil(t, store.actions[0].Action.LastFiredAt)
}

func TestPreviewSchedule(t *testing.T) {
	at := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC) // Wednesday

	rule := model.RecurringRule{Days: []time.Weekday{time.Wednesday}, Start: 9 * 60, End: 17 * 60}
	store := &fakeStore{
		devices: []model.Device{{ID: 1, Name: "lobby", CurrentPlaylistID: intp(7)}},
		assignments: map[int][]model.ScheduledAssignment{
			1: {
				{ID: 1, DeviceID: 1, PlaylistID: 2, Priority: 10, Enabled: true, Rule: rule},
				{ID: 2, DeviceID: 1, PlaylistID: 3, Priority: 20, Enabled: true, Rule: rule},
			},
		},
	}
	engine := New(store, &fakeNotifier{})

	preview, err := engine.PreviewSchedule(context.Background(), 1, at)
	require.NoError(t, err)
	require.NotNil(t, preview.ActiveSchedule)
	assert.Equal(t, 2, preview.ActiveSchedule.ID)
	require.Len(t, preview.ConflictingSchedules, 1)
	assert.Equal(t, 2, preview.ConflictingSchedules[0].WinnerID)
	assert.Equal(t, intp(7), preview.DefaultPlaylistID)
}
