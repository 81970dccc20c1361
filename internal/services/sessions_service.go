package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-board/internal/models"
	"github.com/adanyl0v/go-task-board/internal/store"
	"github.com/adanyl0v/go-task-board/internal/workflow"
)

type sessionServiceImpl struct {
	logger   zerolog.Logger
	sessions store.SessionStore
}

func NewSessionService(
	logger zerolog.Logger,
	sessions store.SessionStore,
) SessionService {
	return &sessionServiceImpl{
		logger:   logger,
		sessions: sessions,
	}
}

func (s *sessionServiceImpl) GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := s.sessions.GetSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Error().
				Str("session_id", sessionID).
				Msg("session not found")
			return nil, workflow.Auth("get session", ErrSessionNotFound)
		}
		return nil, workflow.Persistence("get session", err)
	}
	s.logger.Debug().
		Str("session_id", session.ID).
		Time("expires_at", session.ExpiresAt).
		Msg("selected session by id")
	return session, nil
}
