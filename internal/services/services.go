package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adanyl0v/go-task-board/internal/models"
	"github.com/adanyl0v/go-task-board/internal/workflow"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")
)

type AuthService interface {
	// Login authenticates the user by email and password.
	//
	// It deletes all sessions with the same user ID and creates
	// a new session and generates a new JWT token pair.
	//
	// It returns ErrUserNotFound if the user with the given
	// email doesn't exist or ErrUserPasswordMismatch if the
	// given password doesn't match the user's password. Both
	// are wrapped in a workflow.ErrAuth error.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Refresh updates the session with the given refresh token.
	//
	// It returns ErrSessionNotFound if the session with the
	// given refresh token doesn't exist or ErrSessionExpired
	// if the session is expired.
	Refresh(ctx context.Context, params RefreshParams) (*LoginResult, error)

	// Register a user with the given email and password.
	//
	// It hashes the password, generates a unique ID and creates a
	// session with the given fingerprint and a fresh JWT token pair.
	//
	// It returns ErrUserAlreadyExists if the user
	// with the given email already exists.
	Register(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Logout invalidates all sessions with the given user ID.
	Logout(ctx context.Context, userID string) error

	// ParseJWTToken parses the given JWT token and returns the registered
	// claims or jwt.ErrTokenExpired if the token is expired.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)

	// OnAuthStateChanged registers a listener called after every
	// successful login, registration and logout. The returned func
	// removes it.
	OnAuthStateChanged(listener AuthStateListener) (unsubscribe func())
}

type SessionService interface {
	GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error)
}

type ProfileService interface {
	// GetOrCreate returns the profile of the user, creating it on the
	// first call. The role is decided by the configured admin emails.
	GetOrCreate(ctx context.Context, userID string) (*models.Profile, error)
}

type TaskService interface {
	// ListTasks returns every task ordered by due date.
	ListTasks(ctx context.Context) ([]models.Task, error)

	// SubscribeTasks streams board snapshots until ctx is done.
	SubscribeTasks(ctx context.Context) (<-chan []models.Task, error)

	CreateTask(ctx context.Context, actor models.Profile, in workflow.TaskInput) (string, error)
	EditTask(ctx context.Context, actor models.Profile, taskID string, in workflow.TaskInput) error
	ReserveTask(ctx context.Context, actor models.Profile, taskID string) error
	UnassignTask(ctx context.Context, actor models.Profile, taskID string) error
	ToggleSubtask(ctx context.Context, actor models.Profile, taskID, subtaskID string) error
	CompleteTask(ctx context.Context, actor models.Profile, taskID string) error
	ApproveTask(ctx context.Context, actor models.Profile, taskID string) error
}

type LoginParams struct {
	Email       string
	Password    string
	Fingerprint string
}

type LoginResult struct {
	UserID                string
	SessionID             string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type RefreshParams struct {
	RefreshToken string
	Fingerprint  string
}

// AuthState is passed to auth listeners. UserID is set in both
// directions; SignedIn tells login from logout.
type AuthState struct {
	UserID   string
	Email    string
	SignedIn bool
}

type AuthStateListener func(state AuthState)
