package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/adanyl0v/go-task-board/internal/models"
	"github.com/adanyl0v/go-task-board/internal/store"
)

func day(d int) time.Time {
	return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
}

func createTask(t *testing.T, s *Store, title string, due time.Time) string {
	t.Helper()
	id, err := s.CreateTask(context.Background(), &models.Task{
		Title:   title,
		DueDate: due,
		Status:  models.StatusPending,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return id
}

func receive(t *testing.T, ch <-chan []models.Task) []models.Task {
	t.Helper()
	select {
	case snapshot, ok := <-ch:
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		return snapshot
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return nil
}

func TestStore_ListTasksOrderedByDueDate(t *testing.T) {
	s := New()
	createTask(t, s, "late", day(20))
	createTask(t, s, "early", day(1))
	createTask(t, s, "middle", day(10))

	tasks, err := s.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"early", "middle", "late"}
	for i, title := range want {
		if tasks[i].Title != title {
			t.Fatalf("expected %q at %d, got %q", title, i, tasks[i].Title)
		}
	}
}

func TestStore_UpdateTaskGuard(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := createTask(t, s, "task", day(1))

	task, err := s.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	guard := store.GuardOf(*task)

	task.Status = models.StatusInProgress
	task.AssignedTo = "user-a"
	if err := s.UpdateTask(ctx, task, guard); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	task.AssignedTo = "user-b"
	if err := s.UpdateTask(ctx, task, guard); !errors.Is(err, store.ErrGuardFailed) {
		t.Fatalf("expected guard failure, got %v", err)
	}

	stored, err := s.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.AssignedTo != "user-a" {
		t.Fatalf("expected user-a to keep the task, got %q", stored.AssignedTo)
	}

	missing := models.Task{ID: "missing"}
	if err := s.UpdateTask(ctx, &missing, guard); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStore_UpdateTaskBumpsRevision(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := createTask(t, s, "task", day(1))

	stale, err := s.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	renamed := stale.Clone()
	renamed.Title = "renamed"
	if err := s.UpdateTask(ctx, &renamed, store.GuardOf(*stale)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := s.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Revision != stale.Revision+1 {
		t.Fatalf("expected revision %d, got %d", stale.Revision+1, stored.Revision)
	}

	// Same status and assignee, but an outdated revision.
	other := stale.Clone()
	other.Description = "lost"
	if err := s.UpdateTask(ctx, &other, store.GuardOf(*stale)); !errors.Is(err, store.ErrGuardFailed) {
		t.Fatalf("expected guard failure, got %v", err)
	}

	stored, err = s.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Title != "renamed" || stored.Description != "" {
		t.Fatalf("expected the first update to survive, got %+v", stored)
	}
}

func TestStore_ConcurrentGuardedUpdates(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := createTask(t, s, "task", day(1))

	const workers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			task := models.Task{
				ID:         id,
				Title:      "task",
				DueDate:    day(1),
				Status:     models.StatusInProgress,
				AssignedTo: string(rune('a' + i)),
			}
			err := s.UpdateTask(ctx, &task, store.Guard{Status: models.StatusPending})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else if !errors.Is(err, store.ErrGuardFailed) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", wins)
	}
}

func TestStore_SubscribeTasks(t *testing.T) {
	s := New()
	createTask(t, s, "first", day(2))

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := s.SubscribeTasks(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	initial := receive(t, ch)
	if len(initial) != 1 || initial[0].Title != "first" {
		t.Fatalf("expected initial snapshot with one task, got %+v", initial)
	}

	createTask(t, s, "second", day(1))
	next := receive(t, ch)
	if len(next) != 2 || next[0].Title != "second" {
		t.Fatalf("expected second task first, got %+v", next)
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected channel to be closed after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for close")
	}
	if n := s.SubscriberCount(); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}
}

func TestStore_SubscribeSlowConsumerGetsLatest(t *testing.T) {
	s := New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := s.SubscribeTasks(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const writes = snapshotBuffer * 3
	for i := 0; i < writes; i++ {
		createTask(t, s, "task", day(1))
	}

	var last []models.Task
	for len(ch) > 0 {
		last = <-ch
	}
	if len(last) != writes {
		t.Fatalf("expected latest snapshot with %d tasks, got %d", writes, len(last))
	}
}

func TestStore_Sessions(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := models.Session{ID: "s1", UserID: "u1", RefreshToken: "r1", Fingerprint: "fp"}
	if _, err := s.ReplaceUserSessions(ctx, &first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := models.Session{ID: "s2", UserID: "u1", RefreshToken: "r2", Fingerprint: "fp"}
	dropped, err := s.ReplaceUserSessions(ctx, &second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dropped != 1 {
		t.Fatalf("expected 1 dropped session, got %d", dropped)
	}

	if _, err := s.GetSessionByID(ctx, "s1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected s1 to be gone, got %v", err)
	}
	got, err := s.GetSessionByRefreshToken(ctx, "r2", "fp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "s2" {
		t.Fatalf("expected s2, got %q", got.ID)
	}
	if _, err := s.GetSessionByRefreshToken(ctx, "r2", "other"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected fingerprint mismatch to miss, got %v", err)
	}
}

func TestStore_UsersAndProfiles(t *testing.T) {
	s := New()
	ctx := context.Background()

	user := models.User{ID: "u1", Email: "ana@example.com"}
	if err := s.CreateUser(ctx, &user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dup := models.User{ID: "u2", Email: "ana@example.com"}
	if err := s.CreateUser(ctx, &dup); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	profile := models.Profile{ID: "u1", Name: "ana", Role: models.RoleUser}
	if err := s.CreateProfile(ctx, &profile); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.CreateProfile(ctx, &profile); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if _, err := s.GetProfile(ctx, "u2"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
