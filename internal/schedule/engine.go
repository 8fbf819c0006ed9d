package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/luminode/caster/internal/model"
)

// TickStore is the transactional view the engine reads and writes through
// during one evaluation pass. All reads see the same snapshot; writes commit
// or roll back together with the tick.
type TickStore interface {
	ListDevices(ctx context.Context) ([]model.Device, error)
	ListEnabledAssignments(ctx context.Context) (map[int][]model.ScheduledAssignment, error)
	SetDeviceCurrentPlaylist(ctx context.Context, deviceID int, playlistID *int) error
}

// Store is everything the engine needs from persistence.
type Store interface {
	// InTick runs fn inside a single transaction. An error from fn rolls
	// the whole tick back.
	InTick(ctx context.Context, fn func(TickStore) error) error

	GetDevice(ctx context.Context, id int) (model.Device, error)
	ListDeviceAssignments(ctx context.Context, deviceID int) ([]model.ScheduledAssignment, error)

	ListEnabledActions(ctx context.Context) ([]ActionWithDevice, error)

	// ClaimAction locks the action row, passes the fresh record to fn, and
	// persists last_fired_at = the returned instant iff fn succeeds, all in
	// one transaction. Returning ErrSkipFiring rolls back without error.
	ClaimAction(ctx context.Context, id int, fn func(model.ScheduledAction) (time.Time, error)) error
}

// Notifier is the injected sink for playlist-change events and hardware
// commands. Publishes are one-way; the engine does not await acknowledgement.
type Notifier interface {
	PlaylistChanged(ctx context.Context, change model.ChangeRecord) error
	DispatchAction(ctx context.Context, cmd model.DeviceCommand) error
}

// ActionWithDevice pairs an action with the device it targets.
type ActionWithDevice struct {
	Action model.ScheduledAction
	Device model.Device
}

// Engine evaluates every device's schedule once per tick and fires due
// one-shot actions. It keeps no in-memory state between ticks other than the
// injected clock, so a failed tick is safe to re-run from scratch.
type Engine struct {
	store    Store
	notifier Notifier
	clock    func() time.Time
}

func New(store Store, notifier Notifier) *Engine {
	return &Engine{store: store, notifier: notifier, clock: time.Now}
}

// WithClock overrides the engine's time source.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.clock = clock
	return e
}

// EvaluateAllDevices runs one full tick at the given instant. Device
// playlist writes are committed all-or-nothing; a persistence failure rolls
// back every change and is returned to the caller as retryable. Devices with
// inconsistent rule data are skipped and counted, not fatal.
func (e *Engine) EvaluateAllDevices(ctx context.Context, now time.Time) (model.EvaluationReport, error) {
	var report model.EvaluationReport

	err := e.store.InTick(ctx, func(tx TickStore) error {
		devices, err := tx.ListDevices(ctx)
		if err != nil {
			return fmt.Errorf("list devices: %w", err)
		}
		byDevice, err := tx.ListEnabledAssignments(ctx)
		if err != nil {
			return fmt.Errorf("list assignments: %w", err)
		}

		for _, device := range devices {
			report.EvaluatedCount++

			change, active, err := evaluateDevice(device, byDevice[device.ID], now)
			if err != nil {
				report.ErroredCount++
				log.Error().Err(err).Int("device_id", device.ID).Msg("device evaluation failed")
				continue
			}
			if active {
				report.ActiveScheduleCount++
			}
			if change == nil {
				continue
			}
			if err := tx.SetDeviceCurrentPlaylist(ctx, device.ID, change.NewPlaylistID); err != nil {
				return fmt.Errorf("device %d: persist playlist: %w", device.ID, err)
			}
			report.Changes = append(report.Changes, *change)
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Time("tick", now).Msg("tick aborted, all changes rolled back")
		return model.EvaluationReport{}, err
	}

	report.ChangedCount = len(report.Changes)
	for _, change := range report.Changes {
		if err := e.notifier.PlaylistChanged(ctx, change); err != nil {
			log.Error().Err(err).Int("device_id", change.DeviceID).Msg("change notification failed")
		}
	}

	log.Info().
		Int("evaluated", report.EvaluatedCount).
		Int("active", report.ActiveScheduleCount).
		Int("changed", report.ChangedCount).
		Int("errored", report.ErroredCount).
		Time("tick", now).
		Msg("tick complete")
	return report, nil
}

// evaluateDevice decides the device's target playlist for now. A change is
// reported on playlist identity only: a different rule winning the same
// playlist is not a change.
func evaluateDevice(device model.Device, assignments []model.ScheduledAssignment, now time.Time) (*model.ChangeRecord, bool, error) {
	for _, a := range assignments {
		if a.Rule == nil {
			return nil, false, fmt.Errorf("assignment %d has no time rule", a.ID)
		}
	}

	winner := Resolve(assignments, now)

	target := device.CurrentPlaylistID
	if winner != nil {
		target = &winner.PlaylistID
	}
	if samePlaylist(target, device.CurrentPlaylistID) {
		return nil, winner != nil, nil
	}

	change := &model.ChangeRecord{
		DeviceID:         device.ID,
		DeviceName:       device.Name,
		OldPlaylistID:    device.CurrentPlaylistID,
		NewPlaylistID:    target,
		ChangedAt:        now,
		DeviceHardwareID: device.HardwareID,
	}
	if winner != nil {
		change.ScheduleID = &winner.ID
		change.ScheduleName = &winner.Name
	}
	return change, winner != nil, nil
}

func samePlaylist(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Run evaluates at the engine's clock; the periodic trigger calls this.
func (e *Engine) Run(ctx context.Context) (model.EvaluationReport, error) {
	return e.EvaluateAllDevices(ctx, e.clock())
}

// Now exposes the engine's clock so callers share its time source.
func (e *Engine) Now() time.Time {
	return e.clock()
}
