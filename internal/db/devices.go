package db

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/luminode/caster/internal/model"
)

const deviceColumns = `id, hardware_id, name, location, paired, current_playlist_id, created_by, created_at, updated_at`

func (s *pgStore) CreateDevice(ctx context.Context, name string, location *string, createdBy int) (model.Device, error) {
	var d model.Device
	q := `
	INSERT INTO devices (name, location, paired, created_by, created_at, updated_at)
	VALUES ($1, $2, false, $3, now(), now())
	RETURNING ` + deviceColumns + `;`
	if err := s.db.GetContext(ctx, &d, q, name, location, createdBy); err != nil {
		log.Error().Err(err).Msg("CreateDevice failed")
		return model.Device{}, err
	}
	return d, nil
}

func (s *pgStore) GetDevice(ctx context.Context, id int) (model.Device, error) {
	var d model.Device
	err := s.db.GetContext(ctx, &d, `SELECT `+deviceColumns+` FROM devices WHERE id = $1`, id)
	if err != nil {
		return model.Device{}, notFound(err)
	}
	return d, nil
}

func (s *pgStore) GetDeviceByHardwareID(ctx context.Context, hardwareID string) (model.Device, error) {
	var d model.Device
	err := s.db.GetContext(ctx, &d, `SELECT `+deviceColumns+` FROM devices WHERE hardware_id = $1`, hardwareID)
	if err != nil {
		return model.Device{}, notFound(err)
	}
	return d, nil
}

func (s *pgStore) ListDevices(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	err := s.db.SelectContext(ctx, &devices, `SELECT `+deviceColumns+` FROM devices ORDER BY id`)
	if err != nil {
		log.Error().Err(err).Msg("ListDevices failed")
		return nil, err
	}
	return devices, nil
}

func (s *pgStore) UpdateDevice(ctx context.Context, id int, name, location *string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE devices
		SET name = COALESCE($2, name),
		location = COALESCE($3, location),
		updated_at = now()
		WHERE id = $1
		`, id, name, location)
	if err != nil {
		log.Error().Err(err).Int("device_id", id).Msg("UpdateDevice failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgStore) PairDevice(ctx context.Context, id int, hardwareID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE devices
		SET hardware_id = $2,
		paired = TRUE,
		updated_at = now()
		WHERE id = $1
		`, id, hardwareID)
	if err != nil {
		log.Error().Err(err).Int("device_id", id).Msg("PairDevice failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgStore) SetDeviceCurrentPlaylist(ctx context.Context, id int, playlistID *int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE devices
		SET current_playlist_id = $2,
		updated_at = now()
		WHERE id = $1
		`, id, playlistID)
	if err != nil {
		log.Error().Err(err).Int("device_id", id).Msg("SetDeviceCurrentPlaylist failed")
	}
	return err
}

func (s *pgStore) DeleteDevice(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM devices WHERE id = $1`, id)
	if err != nil {
		log.Error().Err(err).Int("device_id", id).Msg("DeleteDevice failed")
	}
	return err
}
