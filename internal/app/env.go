package app

import (
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-board/internal/config"
)

// ReadEnv loads the config from the environment and a .env file, if any.
func ReadEnv(logger zerolog.Logger) (*config.Config, error) {
	cfg, err := config.NewEnvReader().Read()
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to read env")
		return nil, err
	}
	logger.Info().
		Str("env", cfg.Env).
		Str("store_backend", cfg.StoreBackend).
		Msg("read env")
	return cfg, nil
}
