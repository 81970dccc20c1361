// Package postgres stores the board in PostgreSQL through a pgx pool.
// Task changes are announced on a LISTEN/NOTIFY channel so subscribers get
// fresh snapshots without polling.
package postgres

import (
	"context"
	_ "embed"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-board/internal/store"
)

const tasksChannel = "tasks_changed"

//go:embed schema.sql
var schema string

type Store struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func New(logger zerolog.Logger, pgPool *pgxpool.Pool) *Store {
	return &Store{
		logger: logger,
		pgPool: pgPool,
	}
}

var _ store.Store = (*Store)(nil)

// Migrate creates the tables if they don't exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pgPool.Exec(ctx, schema)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to apply schema")
		return err
	}
	s.logger.Debug().Msg("applied schema")
	return nil
}

// Close releases the pool.
func (s *Store) Close(_ context.Context) error {
	s.pgPool.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
