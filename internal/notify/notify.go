// Package notify carries one-way events from the scheduler to devices: the
// sink is injected into the engine so nothing in the evaluation path touches
// process-wide state.
package notify

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/luminode/caster/internal/model"
)

// Sink delivers playlist-change events and hardware commands. Delivery is
// fire-and-forget; the scheduler does not await acknowledgement.
type Sink interface {
	PlaylistChanged(ctx context.Context, change model.ChangeRecord) error
	DispatchAction(ctx context.Context, cmd model.DeviceCommand) error
}

// LogSink prints events instead of delivering them. Used in development and
// whenever no broker is configured.
type LogSink struct{}

func (LogSink) PlaylistChanged(_ context.Context, change model.ChangeRecord) error {
	log.Info().
		Int("device_id", change.DeviceID).
		Str("device_name", change.DeviceName).
		Interface("old_playlist_id", change.OldPlaylistID).
		Interface("new_playlist_id", change.NewPlaylistID).
		Msg("playlist changed")
	return nil
}

func (LogSink) DispatchAction(_ context.Context, cmd model.DeviceCommand) error {
	log.Info().
		Int("device_id", cmd.DeviceID).
		Str("action", string(cmd.Action)).
		Msg("device action dispatched")
	return nil
}
