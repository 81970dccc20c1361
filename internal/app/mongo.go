package app

import (
	"context"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/adanyl0v/go-task-board/internal/config"
)

// connectMongo expects a replica set; change streams are unavailable on a
// standalone server.
func connectMongo(ctx context.Context, logger zerolog.Logger, cfg config.MongoConfig) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to connect to mongo")
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()

	err = client.Ping(pingCtx, readpref.Primary())
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to ping mongo")
		_ = client.Disconnect(ctx)
		return nil, err
	}
	logger.Info().
		Str("database", cfg.Database).
		Msg("connected to mongo")
	return client, nil
}
