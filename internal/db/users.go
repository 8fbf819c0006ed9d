package db

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/luminode/caster/internal/model"
)

func (s *pgStore) CreateUser(ctx context.Context, email, hashedPassword string, name *string) (int, error) {
	var id int
	const q = `
	INSERT INTO users (email, hashed_password, name, created_at, updated_at)
	VALUES ($1, $2, $3, now(), now())
	RETURNING id;`
	if err := s.db.GetContext(ctx, &id, q, email, hashedPassword, name); err != nil {
		log.Error().Err(err).Msg("CreateUser failed")
		return 0, err
	}
	return id, nil
}

func (s *pgStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, `
		SELECT id, email, hashed_password, name, created_at, updated_at
		FROM users
		WHERE email = $1
		`, email)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *pgStore) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, `
		SELECT id, email, hashed_password, name, created_at, updated_at
		FROM users
		WHERE id = $1
		`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}
