// Package store declares the persistence contracts of the board. Adapters
// live in the memory, postgres and mongo subpackages.
package store

import (
	"context"
	"errors"

	"github.com/adanyl0v/go-task-board/internal/models"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrDuplicate   = errors.New("document already exists")
	ErrGuardFailed = errors.New("document changed concurrently")
)

// Guard is the state a writer observed before computing an update. The
// update is applied only if the stored task still has this status,
// assignee and revision.
type Guard struct {
	Status     models.Status
	AssignedTo string
	Revision   int64
}

// GuardOf captures the guard for a task snapshot.
func GuardOf(task models.Task) Guard {
	return Guard{
		Status:     task.Status,
		AssignedTo: task.AssignedTo,
		Revision:   task.Revision,
	}
}

type TaskStore interface {
	// CreateTask inserts the task and returns its generated id.
	CreateTask(ctx context.Context, task *models.Task) (string, error)

	// GetTask returns ErrNotFound if there is no task with the given id.
	GetTask(ctx context.Context, id string) (*models.Task, error)

	// ListTasks returns every task ordered by due date, oldest first.
	ListTasks(ctx context.Context) ([]models.Task, error)

	// UpdateTask replaces the stored document atomically. It returns
	// ErrNotFound if the task is gone and ErrGuardFailed if the stored
	// status or assignee no longer match the guard.
	UpdateTask(ctx context.Context, task *models.Task, guard Guard) error

	// SubscribeTasks streams full snapshots of the collection, ordered as
	// ListTasks. The first snapshot is sent right away. The channel is
	// closed when ctx is done or the subscription fails.
	SubscribeTasks(ctx context.Context) (<-chan []models.Task, error)
}

type ProfileStore interface {
	// GetProfile returns ErrNotFound if the profile doesn't exist.
	GetProfile(ctx context.Context, id string) (*models.Profile, error)

	// CreateProfile returns ErrDuplicate if a profile with the same id
	// already exists.
	CreateProfile(ctx context.Context, profile *models.Profile) error
}

type UserStore interface {
	// CreateUser returns ErrDuplicate if the email is already taken.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type SessionStore interface {
	// ReplaceUserSessions atomically drops every session of the session's
	// user and stores the new one. It returns how many sessions were dropped.
	ReplaceUserSessions(ctx context.Context, session *models.Session) (int64, error)
	GetSessionByID(ctx context.Context, id string) (*models.Session, error)
	GetSessionByRefreshToken(ctx context.Context, refreshToken, fingerprint string) (*models.Session, error)
	UpdateSession(ctx context.Context, session *models.Session) error

	// DeleteSessionsByUserID returns how many sessions were removed.
	DeleteSessionsByUserID(ctx context.Context, userID string) (int64, error)
}

// Store bundles the collections a backend provides.
type Store interface {
	TaskStore
	ProfileStore
	UserStore
	SessionStore
	Close(ctx context.Context) error
}
