package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-board/internal/models"
	"github.com/adanyl0v/go-task-board/internal/store"
	"github.com/adanyl0v/go-task-board/internal/workflow"
)

const (
	opGetProfile = "get profile"

	defaultProfileName = "Usuário"
)

type profileServiceImpl struct {
	logger      zerolog.Logger
	users       store.UserStore
	profiles    store.ProfileStore
	adminEmails map[string]struct{}
}

func NewProfileService(
	logger zerolog.Logger,
	users store.UserStore,
	profiles store.ProfileStore,
	adminEmails []string,
) ProfileService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		email = normalizeEmail(email)
		if email != "" {
			admins[email] = struct{}{}
		}
	}

	return &profileServiceImpl{
		logger:      logger,
		users:       users,
		profiles:    profiles,
		adminEmails: admins,
	}
}

func (s *profileServiceImpl) GetOrCreate(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, workflow.Persistence(opGetProfile, err)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, workflow.Auth(opGetProfile, ErrUserNotFound)
		}
		return nil, workflow.Persistence(opGetProfile, err)
	}

	now := time.Now()
	profile = &models.Profile{
		ID:        user.ID,
		Name:      ProfileName(user.Email),
		Role:      s.roleOf(user.Email),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.profiles.CreateProfile(ctx, profile)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Another request bootstrapped it first.
			existing, err := s.profiles.GetProfile(ctx, userID)
			if err != nil {
				return nil, workflow.Persistence(opGetProfile, err)
			}
			return existing, nil
		}
		return nil, workflow.Persistence(opGetProfile, err)
	}

	s.logger.Info().
		Str("user_id", profile.ID).
		Str("role", string(profile.Role)).
		Msg("created profile")
	return profile, nil
}

func (s *profileServiceImpl) roleOf(email string) models.Role {
	if _, ok := s.adminEmails[normalizeEmail(email)]; ok {
		return models.RoleAdmin
	}
	return models.RoleUser
}

// ProfileName derives a display name from the local part of an email.
func ProfileName(email string) string {
	name, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	if name == "" {
		return defaultProfileName
	}
	return name
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
