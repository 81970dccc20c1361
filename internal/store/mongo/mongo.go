// Package mongo stores the board in MongoDB. Task subscriptions are backed
// by change streams, so the server must run as a replica set.
package mongo

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adanyl0v/go-task-board/internal/store"
)

const (
	tasksCollection    = "tasks"
	profilesCollection = "profiles"
	usersCollection    = "users"
	sessionsCollection = "sessions"
)

type Store struct {
	logger zerolog.Logger
	client *mongo.Client

	tasks    *mongo.Collection
	profiles *mongo.Collection
	users    *mongo.Collection
	sessions *mongo.Collection
}

func New(logger zerolog.Logger, client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		logger:   logger,
		client:   client,
		tasks:    db.Collection(tasksCollection),
		profiles: db.Collection(profilesCollection),
		users:    db.Collection(usersCollection),
		sessions: db.Collection(sessionsCollection),
	}
}

var _ store.Store = (*Store)(nil)

// EnsureIndexes creates the indexes the queries rely on. It is safe to call
// on every start.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.tasks, mongo.IndexModel{Keys: bson.D{{Key: "dueDate", Value: 1}, {Key: "createdAt", Value: 1}}}},
		{s.users, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.sessions, mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}}}},
		{s.sessions, mongo.IndexModel{Keys: bson.D{{Key: "refreshToken", Value: 1}, {Key: "fingerprint", Value: 1}}}},
	}

	for _, idx := range indexes {
		name, err := idx.coll.Indexes().CreateOne(ctx, idx.model)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("collection", idx.coll.Name()).
				Msg("failed to create index")
			return err
		}
		s.logger.Debug().
			Str("collection", idx.coll.Name()).
			Str("index", name).
			Msg("ensured index")
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func notFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
