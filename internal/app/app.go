// Package app wires config, logging, the store backend and the services
// into a runnable service.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-board/internal/config"
	"github.com/adanyl0v/go-task-board/internal/services"
	"github.com/adanyl0v/go-task-board/internal/store"
	"github.com/adanyl0v/go-task-board/internal/store/memory"
	"github.com/adanyl0v/go-task-board/internal/store/mongo"
	"github.com/adanyl0v/go-task-board/internal/store/postgres"
)

type App struct {
	logger zerolog.Logger
	cfg    *config.Config
	store  store.Store

	auth     services.AuthService
	sessions services.SessionService
	profiles services.ProfileService
	tasks    services.TaskService

	unsubscribe func()
}

// New opens the configured store and builds the services on top of it.
func New(ctx context.Context, logger zerolog.Logger, cfg *config.Config) (*App, error) {
	st, err := openStore(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		logger: logger,
		cfg:    cfg,
		store:  st,
	}

	a.auth = services.NewAuthService(
		logger,
		st,
		st,
		cfg.JWT.Issuer,
		[]byte(cfg.JWT.SigningKey),
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
	)
	a.sessions = services.NewSessionService(logger, st)
	a.profiles = services.NewProfileService(logger, st, st, cfg.AdminEmails)
	a.tasks = services.NewTaskService(logger, st)

	a.unsubscribe = a.auth.OnAuthStateChanged(a.bootstrapProfile)
	return a, nil
}

func (a *App) Tasks() services.TaskService {
	return a.tasks
}

// bootstrapProfile creates the profile of a user on first sign-in so the
// board never sees an identity without one.
func (a *App) bootstrapProfile(state services.AuthState) {
	if !state.SignedIn {
		return
	}

	profile, err := a.profiles.GetOrCreate(context.Background(), state.UserID)
	if err != nil {
		a.logger.Error().
			Err(err).
			Str("user_id", state.UserID).
			Msg("failed to bootstrap profile")
		return
	}
	a.logger.Debug().
		Str("user_id", profile.ID).
		Str("role", string(profile.Role)).
		Msg("profile ready")
}

func (a *App) Close(ctx context.Context) error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}

	err := a.store.Close(ctx)
	if err != nil {
		a.logger.Error().
			Err(err).
			Str("store_backend", a.cfg.StoreBackend).
			Msg("failed to close store")
		return err
	}
	a.logger.Info().
		Str("store_backend", a.cfg.StoreBackend).
		Msg("closed store")
	return nil
}

func openStore(ctx context.Context, logger zerolog.Logger, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		pool, err := connectPostgres(ctx, logger, cfg.Postgres)
		if err != nil {
			return nil, err
		}

		st := postgres.New(logger, pool)
		err = st.Migrate(ctx)
		if err != nil {
			logger.Error().
				Err(err).
				Msg("failed to migrate postgres")
			pool.Close()
			return nil, err
		}
		return st, nil
	case config.StoreBackendMongo:
		client, err := connectMongo(ctx, logger, cfg.Mongo)
		if err != nil {
			return nil, err
		}

		st := mongo.New(logger, client, cfg.Mongo.Database)
		err = st.EnsureIndexes(ctx)
		if err != nil {
			logger.Error().
				Err(err).
				Msg("failed to create mongo indexes")
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return st, nil
	case config.StoreBackendMemory:
		logger.Warn().Msg("using in-memory store, data is lost on exit")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}
}
