package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/adanyl0v/go-task-board/internal/models"
	"github.com/adanyl0v/go-task-board/internal/store"
)

func (s *Store) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	err := s.profiles.FindOne(ctx, bson.M{"_id": id}).Decode(&profile)
	if err != nil {
		if notFound(err) {
			return nil, store.ErrNotFound
		}

		s.logger.Error().
			Err(err).
			Str("profile_id", id).
			Msg("failed to find profile")
		return nil, err
	}
	return &profile, nil
}

func (s *Store) CreateProfile(ctx context.Context, profile *models.Profile) error {
	_, err := s.profiles.InsertOne(ctx, profile)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
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
