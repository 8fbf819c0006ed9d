package db

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/luminode/caster/internal/model"
)

func (s *pgStore) CreatePlaylist(ctx context.Context, name string, description *string, createdBy int) (model.Playlist, error) {
	var p model.Playlist
	const q = `
	INSERT INTO playlists (name, description, created_by, created_at, updated_at)
	VALUES ($1, $2, $3, now(), now())
	RETURNING id, name, description, created_by, created_at, updated_at;`
	if err := s.db.GetContext(ctx, &p, q, name, description, createdBy); err != nil {
		log.Error().Err(err).Msg("CreatePlaylist failed")
		return model.Playlist{}, err
	}
	return p, nil
}

func (s *pgStore) GetPlaylist(ctx context.Context, id int) (model.Playlist, error) {
	var p model.Playlist
	err := s.db.GetContext(ctx, &p, `
		SELECT id, name, description, created_by, created_at, updated_at
		FROM playlists
		WHERE id = $1
		`, id)
	if err != nil {
		return model.Playlist{}, notFound(err)
	}
	return p, nil
}

func (s *pgStore) ListPlaylists(ctx context.Context) ([]model.Playlist, error) {
	var playlists []model.Playlist
	err := s.db.SelectContext(ctx, &playlists, `
		SELECT id, name, description, created_by, created_at, updated_at
		FROM playlists
		ORDER BY id
		`)
	if err != nil {
		log.Error().Err(err).Msg("ListPlaylists failed")
		return nil, err
	}
	return playlists, nil
}

func (s *pgStore) UpdatePlaylist(ctx context.Context, id int, name, description *string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE playlists
		SET name = COALESCE($2, name),
		description = COALESCE($3, description),
		updated_at = now()
		WHERE id = $1
		`, id, name, description)
	if err != nil {
		log.Error().Err(err).Int("playlist_id", id).Msg("UpdatePlaylist failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgStore) DeletePlaylist(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM playlists WHERE id = $1`, id)
	if err != nil {
		log.Error().Err(err).Int("playlist_id", id).Msg("DeletePlaylist failed")
	}
	return err
}
