package db

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/luminode/caster/internal/model"
	"github.com/luminode/caster/internal/schedule"
)

// InTick wraps one evaluation pass in a repeatable-read transaction: every
// device sees the same rule snapshot, and the tick's device writes commit
// all-or-nothing.
func (s *pgStore) InTick(ctx context.Context, fn func(schedule.TickStore) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&tickStore{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

type tickStore struct {
	tx *sqlx.Tx
}

var _ schedule.TickStore = (*tickStore)(nil)

func (t *tickStore) ListDevices(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	err := t.tx.SelectContext(ctx, &devices, `SELECT `+deviceColumns+` FROM devices ORDER BY id`)
	if err != nil {
		log.Error().Err(err).Msg("tick: list devices failed")
		return nil, err
	}
	return devices, nil
}

func (t *tickStore) ListEnabledAssignments(ctx context.Context) (map[int][]model.ScheduledAssignment, error) {
	var rows []assignmentRow
	err := t.tx.SelectContext(ctx, &rows,
		`SELECT `+assignmentColumns+` FROM scheduled_assignments WHERE enabled = TRUE ORDER BY id`)
	if err != nil {
		log.Error().Err(err).Msg("tick: list assignments failed")
		return nil, err
	}

	byDevice := make(map[int][]model.ScheduledAssignment, len(rows))
	for _, r := range rows {
		a, err := r.toModel()
		if err != nil {
			return nil, err
		}
		byDevice[a.DeviceID] = append(byDevice[a.DeviceID], a)
	}
	return byDevice, nil
}

func (t *tickStore) SetDeviceCurrentPlaylist(ctx context.Context, deviceID int, playlistID *int) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE devices
		SET current_playlist_id = $2,
		updated_at = now()
		WHERE id = $1
		`, deviceID, playlistID)
	if err != nil {
		log.Error().Err(err).Int("device_id", deviceID).Msg("tick: set current playlist failed")
	}
	return err
}
