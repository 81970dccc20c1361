// Package memory keeps every collection in process memory. It backs the
// local environment and the tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/adanyl0v/go-task-board/internal/models"
	"github.com/adanyl0v/go-task-board/internal/store"
)

// snapshotBuffer bounds how many snapshots may wait for a slow subscriber.
// When it's full the oldest pending snapshot is dropped; the newest one
// always gets through.
const snapshotBuffer = 16

type Store struct {
	mu       sync.RWMutex
	tasks    map[string]models.Task
	profiles map[string]models.Profile
	users    map[string]models.User
	sessions map[string]models.Session

	subsMu sync.Mutex
	subs   map[uint64]chan []models.Task
	nextID uint64
}

func New() *Store {
	return &Store{
		tasks:    make(map[string]models.Task),
		profiles: make(map[string]models.Profile),
		users:    make(map[string]models.User),
		sessions: make(map[string]models.Session),
		subs:     make(map[uint64]chan []models.Task),
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) CreateTask(_ context.Context, task *models.Task) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := task.Clone()
	stored.ID = id.String()
	stored.Revision = 0
	s.tasks[stored.ID] = stored
	s.publish(s.snapshotLocked())
	return stored.ID, nil
}

func (s *Store) GetTask(_ context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	t = t.Clone()
	return &t, nil
}

func (s *Store) ListTasks(_ context.Context) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(), nil
}

func (s *Store) UpdateTask(_ context.Context, task *models.Task, guard store.Guard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tasks[task.ID]
	if !ok {
		return store.ErrNotFound
	}
	if store.GuardOf(current) != guard {
		return store.ErrGuardFailed
	}

	stored := task.Clone()
	stored.Revision = current.Revision + 1
	s.tasks[task.ID] = stored
	s.publish(s.snapshotLocked())
	return nil
}

func (s *Store) SubscribeTasks(ctx context.Context) (<-chan []models.Task, error) {
	ch := make(chan []models.Task, snapshotBuffer)

	// Lock order is mu, then subsMu, same as the writers.
	s.mu.RLock()
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	ch <- s.snapshotLocked()
	s.subsMu.Unlock()
	s.mu.RUnlock()

	go func() {
		<-ctx.Done()
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}()

	return ch, nil
}

// SubscriberCount reports the number of open subscriptions.
func (s *Store) SubscriberCount() int {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	return len(s.subs)
}

// publish must be called with mu held so snapshots reach subscribers in
// write order.
func (s *Store) publish(snapshot []models.Task) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- cloneTasks(snapshot):
			continue
		default:
		}

		// Drop the oldest pending snapshot to make room.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- cloneTasks(snapshot):
		default:
		}
	}
}

func (s *Store) snapshotLocked() []models.Task {
	out := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func cloneTasks(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

func (s *Store) GetProfile(_ context.Context, id string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) CreateProfile(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profile.ID]; ok {
		return store.ErrDuplicate
	}
	s.profiles[profile.ID] = *profile
	return nil
}

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return store.ErrDuplicate
		}
	}
	if _, ok := s.users[user.ID]; ok {
		return store.ErrDuplicate
	}
	s.users[user.ID] = *user
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) ReplaceUserSessions(_ context.Context, session *models.Session) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := s.deleteSessionsLocked(session.UserID)
	s.sessions[session.ID] = *session
	return dropped, nil
}

func (s *Store) GetSessionByID(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &sess, nil
}

func (s *Store) GetSessionByRefreshToken(_ context.Context, refreshToken, fingerprint string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sess := range s.sessions {
		if sess.RefreshToken == refreshToken && sess.Fingerprint == fingerprint {
			return &sess, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateSession(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; !ok {
		return store.ErrNotFound
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s *Store) DeleteSessionsByUserID(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteSessionsLocked(userID), nil
}

func (s *Store) deleteSessionsLocked(userID string) int64 {
	var n int64
	for id, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Close ends every open subscription.
func (s *Store) Close(_ context.Context) error {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	return nil
}
