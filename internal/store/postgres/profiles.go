package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/adanyl0v/go-task-board/internal/models"
	"github.com/adanyl0v/go-task-board/internal/store"
)

func (s *Store) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	profile := &models.Profile{ID: id}

	const selectProfileQuery = `
SELECT name,
       role,
       created_at,
       updated_at
FROM profiles
WHERE id = $1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectProfileQuery,
		profile.ID,
	).Scan(
		&profile.Name,
		&profile.Role,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}

		s.logger.Error().
			Err(err).
			Str("profile_id", id).
			Msg("failed to select profile")
		return nil, err
	}
	return profile, nil
}

func (s *Store) CreateProfile(ctx context.Context, profile *models.Profile) error {
	const insertProfileQuery = `
INSERT INTO profiles (id,
                      name,
                      role,
                      created_at,
                      updated_at)
VALUES ($1, $2, $3, $4, $5)
`
	_, err := s.pgPool.Exec(
		ctx,
		insertProfileQuery,
		profile.ID,
		profile.Name,
		profile.Role,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}

		s.logger.Error().
			Err(err).
			Str("profile_id", profile.ID).
			Msg("failed to insert profile")
		return err
	}
	s.logger.Debug().
		Str("profile_id", profile.ID).
		Msg("inserted profile")
	return nil
}
