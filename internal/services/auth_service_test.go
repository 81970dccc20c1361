package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-board/internal/store/memory"
	"github.com/adanyl0v/go-task-board/internal/workflow"
)

func newAuthService(st *memory.Store) AuthService {
	return NewAuthService(
		zerolog.Nop(),
		st,
		st,
		"go-task-board",
		[]byte("test-signing-key"),
		15*time.Minute,
		24*time.Hour,
	)
}

func TestAuthService_RegisterLoginRefreshLogout(t *testing.T) {
	st := memory.New()
	s := newAuthService(st)
	ctx := context.Background()

	var states []AuthState
	unsubscribe := s.OnAuthStateChanged(func(state AuthState) {
		states = append(states, state)
	})
	defer unsubscribe()

	params := LoginParams{Email: "ana@example.com", Password: "secret123", Fingerprint: "fp"}
	registered, err := s.Register(ctx, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := s.ParseJWTToken(registered.AccessToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Subject != registered.SessionID {
		t.Fatalf("expected subject %q, got %q", registered.SessionID, claims.Subject)
	}

	loggedIn, err := s.Login(ctx, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loggedIn.UserID != registered.UserID {
		t.Fatalf("expected user %q, got %q", registered.UserID, loggedIn.UserID)
	}
	if _, err := st.GetSessionByID(ctx, registered.SessionID); err == nil {
		t.Fatal("expected login to drop the previous session")
	}

	refreshed, err := s.Refresh(ctx, RefreshParams{RefreshToken: loggedIn.RefreshToken, Fingerprint: "fp"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refreshed.RefreshToken == loggedIn.RefreshToken {
		t.Fatal("expected refresh token to rotate")
	}

	if err := s.Logout(ctx, loggedIn.UserID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = s.Refresh(ctx, RefreshParams{RefreshToken: refreshed.RefreshToken, Fingerprint: "fp"})
	if !errors.Is(err, ErrSessionNotFound) || !errors.Is(err, workflow.ErrAuth) {
		t.Fatalf("expected auth error after logout, got %v", err)
	}

	if len(states) != 3 {
		t.Fatalf("expected 3 auth state changes, got %d", len(states))
	}
	if !states[0].SignedIn || states[0].Email != params.Email {
		t.Fatalf("expected sign-in for %q, got %+v", params.Email, states[0])
	}
	if states[2].SignedIn || states[2].UserID != registered.UserID {
		t.Fatalf("expected sign-out of %q, got %+v", registered.UserID, states[2])
	}
}

func TestAuthService_LoginFailures(t *testing.T) {
	st := memory.New()
	s := newAuthService(st)
	ctx := context.Background()

	_, err := s.Register(ctx, LoginParams{Email: "ana@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		params LoginParams
		want   error
	}{
		{name: "unknown email", params: LoginParams{Email: "bob@example.com", Password: "secret123"}, want: ErrUserNotFound},
		{name: "wrong password", params: LoginParams{Email: "ana@example.com", Password: "nope"}, want: ErrUserPasswordMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Login(ctx, tt.params)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !errors.Is(err, workflow.ErrAuth) {
				t.Fatalf("expected auth error kind, got %v", err)
			}
		})
	}

	_, err = s.Register(ctx, LoginParams{Email: "ana@example.com", Password: "secret123"})
	if !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("expected duplicate user, got %v", err)
	}
}

func TestAuthService_Unsubscribe(t *testing.T) {
	st := memory.New()
	s := newAuthService(st)

	calls := 0
	unsubscribe := s.OnAuthStateChanged(func(AuthState) { calls++ })
	s.OnAuthStateChanged(func(AuthState) { panic("boom") })
	unsubscribe()

	_, err := s.Register(context.Background(), LoginParams{Email: "ana@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no calls after unsubscribe, got %d", calls)
	}
}
