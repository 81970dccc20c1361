package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/adanyl0v/go-task-board/internal/models"
	"github.com/adanyl0v/go-task-board/internal/store"
)

func (s *Store) ReplaceUserSessions(ctx context.Context, session *models.Session) (int64, error) {
	dbSession, err := s.client.StartSession()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to start session")
		return 0, err
	}
	defer dbSession.EndSession(context.Background())

	dropped, err := dbSession.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := s.sessions.DeleteMany(sc, bson.M{"userId": session.UserID})
		if err != nil {
			return nil, err
		}

		_, err = s.sessions.InsertOne(sc, session)
		if err != nil {
			return nil, err
		}
		return res.DeletedCount, nil
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", session.UserID).
			Msg("failed to replace user sessions")
		return 0, err
	}

	s.logger.Debug().
		Str("session_id", session.ID).
		Time("expires_at", session.ExpiresAt).
		Msg("inserted session")
	return dropped.(int64), nil
}

func (s *Store) GetSessionByID(ctx context.Context, id string) (*models.Session, error) {
	return s.findSession(ctx, bson.M{"_id": id})
}

func (s *Store) GetSessionByRefreshToken(ctx context.Context, refreshToken, fingerprint string) (*models.Session, error) {
	return s.findSession(ctx, bson.M{
		"refreshToken": refreshToken,
		"fingerprint":  fingerprint,
	})
}

func (s *Store) findSession(ctx context.Context, filter bson.M) (*models.Session, error) {
	var session models.Session
	err := s.sessions.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if notFound(err) {
			return nil, store.ErrNotFound
		}

		s.logger.Error().
			Err(err).
			Msg("failed to find session")
		return nil, err
	}
	return &session, nil
}

func (s *Store) UpdateSession(ctx context.Context, session *models.Session) error {
	update := bson.M{"$set": bson.M{
		"refreshToken": session.RefreshToken,
		"expiresAt":    session.ExpiresAt,
		"updatedAt":    session.UpdatedAt,
	}}
	res, err := s.sessions.UpdateByID(ctx, session.ID, update)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("session_id", session.ID).
			Msg("failed to update session")
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteSessionsByUserID(ctx context.Context, userID string) (int64, error) {
	res, err := s.sessions.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to delete sessions")
		return 0, err
	}
	return res.DeletedCount, nil
}
