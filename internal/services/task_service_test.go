package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-board/internal/models"
	"github.com/adanyl0v/go-task-board/internal/store"
	"github.com/adanyl0v/go-task-board/internal/store/memory"
	"github.com/adanyl0v/go-task-board/internal/workflow"
)

var (
	admin   = models.Profile{ID: "admin-1", Name: "Ana", Role: models.RoleAdmin}
	workerA = models.Profile{ID: "user-a", Name: "Bruno", Role: models.RoleUser}
	workerB = models.Profile{ID: "user-b", Name: "Carla", Role: models.RoleUser}
)

func newTaskService(tasks store.TaskStore) *taskServiceImpl {
	s := NewTaskService(zerolog.Nop(), tasks).(*taskServiceImpl)
	s.now = func() time.Time { return time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC) }
	return s
}

func createCleanLobby(t *testing.T, s TaskService) string {
	t.Helper()
	id, err := s.CreateTask(context.Background(), admin, workflow.TaskInput{
		Title:   "Clean lobby",
		DueDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Subtasks: []workflow.SubtaskInput{
			{Title: "sweep"},
			{Title: "mop"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return id
}

func TestTaskService_Lifecycle(t *testing.T) {
	st := memory.New()
	s := newTaskService(st)
	ctx := context.Background()
	id := createCleanLobby(t, s)

	if err := s.ReserveTask(ctx, workerA, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	task, err := st.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, sub := range task.Subtasks {
		if err := s.ToggleSubtask(ctx, workerA, id, sub.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := s.CompleteTask(ctx, workerA, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.ApproveTask(ctx, admin, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	task, err = st.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Status != models.StatusApproved || task.AssignedTo != workerA.ID {
		t.Fatalf("expected approved task kept by %q, got %s/%q", workerA.ID, task.Status, task.AssignedTo)
	}
	if task.CompletedAt == nil {
		t.Fatal("expected completed_at to be set")
	}
}

func TestTaskService_ConcurrentReserve(t *testing.T) {
	st := memory.New()
	s := newTaskService(st)
	id := createCleanLobby(t, s)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, worker := range []models.Profile{workerA, workerB} {
		wg.Add(1)
		go func(i int, worker models.Profile) {
			defer wg.Done()
			errs[i] = s.ReserveTask(context.Background(), worker, id)
		}(i, worker)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err == nil {
			continue
		}
		if !errors.Is(err, workflow.ErrInvalidTransition) {
			t.Fatalf("expected invalid transition, got %v", err)
		}
		failed++
	}
	if failed != 1 {
		t.Fatalf("expected exactly one failed reserve, got %d", failed)
	}

	task, err := st.GetTask(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.AssignedTo != workerA.ID && task.AssignedTo != workerB.ID {
		t.Fatalf("expected one of the workers to hold the task, got %q", task.AssignedTo)
	}
}

func TestTaskService_Unassign(t *testing.T) {
	st := memory.New()
	s := newTaskService(st)
	ctx := context.Background()
	id := createCleanLobby(t, s)

	if err := s.ReserveTask(ctx, workerA, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.UnassignTask(ctx, workerA, id); !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition for non-admin, got %v", err)
	}
	if err := s.UnassignTask(ctx, admin, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	task, err := st.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Status != models.StatusPending || task.AssignedTo != "" || task.AssignedUserName != "" {
		t.Fatalf("expected unassigned pending task, got %s/%q/%q", task.Status, task.AssignedTo, task.AssignedUserName)
	}
}

func TestTaskService_EditKeepsWorkflowFields(t *testing.T) {
	st := memory.New()
	s := newTaskService(st)
	ctx := context.Background()
	id := createCleanLobby(t, s)

	if err := s.ReserveTask(ctx, workerA, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := s.EditTask(ctx, admin, id, workflow.TaskInput{
		Title:   "Clean lobby and stairs",
		DueDate: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	task, err := st.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Title != "Clean lobby and stairs" || len(task.Subtasks) != 0 {
		t.Fatalf("expected edited task, got %+v", task)
	}
	if task.Status != models.StatusInProgress || task.AssignedTo != workerA.ID {
		t.Fatalf("expected workflow fields untouched, got %s/%q", task.Status, task.AssignedTo)
	}
}

func TestTaskService_UnknownTask(t *testing.T) {
	s := newTaskService(memory.New())

	err := s.ReserveTask(context.Background(), workerA, "missing")
	if !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestTaskService_ValidationDoesNotWrite(t *testing.T) {
	st := memory.New()
	s := newTaskService(st)

	_, err := s.CreateTask(context.Background(), admin, workflow.TaskInput{Title: " "})
	if !errors.Is(err, workflow.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	tasks, err := st.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected no tasks, got %d", len(tasks))
	}
}

type failingTaskStore struct {
	*memory.Store
	err error
}

func (s failingTaskStore) UpdateTask(context.Context, *models.Task, store.Guard) error {
	return s.err
}

func TestTaskService_PersistenceFailure(t *testing.T) {
	cause := errors.New("connection reset")
	st := failingTaskStore{Store: memory.New(), err: cause}
	s := newTaskService(st)
	id := createCleanLobby(t, s)

	err := s.ReserveTask(context.Background(), workerA, id)
	if !errors.Is(err, workflow.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be wrapped, got %v", err)
	}
}

// interleavingTaskStore runs beforeUpdate once, after the service has read
// the task and before its write lands.
type interleavingTaskStore struct {
	*memory.Store
	beforeUpdate func()
}

func (s *interleavingTaskStore) UpdateTask(ctx context.Context, task *models.Task, guard store.Guard) error {
	if hook := s.beforeUpdate; hook != nil {
		s.beforeUpdate = nil
		hook()
	}
	return s.Store.UpdateTask(ctx, task, guard)
}

func TestTaskService_StaleToggleDoesNotOverwriteEdit(t *testing.T) {
	st := &interleavingTaskStore{Store: memory.New()}
	s := newTaskService(st)
	ctx := context.Background()
	id := createCleanLobby(t, s)

	if err := s.ReserveTask(ctx, workerA, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	task, err := st.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	edit := workflow.TaskInput{
		Title:   "Clean lobby and stairs",
		DueDate: task.DueDate,
		Subtasks: []workflow.SubtaskInput{
			{ID: task.Subtasks[0].ID, Title: task.Subtasks[0].Title},
			{ID: task.Subtasks[1].ID, Title: task.Subtasks[1].Title},
			{Title: "stairs"},
		},
	}
	st.beforeUpdate = func() {
		if err := s.EditTask(ctx, admin, id, edit); err != nil {
			t.Errorf("unexpected edit error: %v", err)
		}
	}

	err = s.ToggleSubtask(ctx, workerA, id, task.Subtasks[0].ID)
	if !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition for the stale toggle, got %v", err)
	}

	stored, err := st.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Title != edit.Title || len(stored.Subtasks) != 3 {
		t.Fatalf("expected the edit to survive, got %q with %d subtasks", stored.Title, len(stored.Subtasks))
	}
	if stored.Subtasks[0].Completed {
		t.Fatal("stale toggle must not be applied")
	}

	if err := s.ToggleSubtask(ctx, workerA, id, task.Subtasks[0].ID); err != nil {
		t.Fatalf("retry on fresh state should succeed, got %v", err)
	}
}

func TestTaskService_WriteSurvivesCancelledRequest(t *testing.T) {
	st := memory.New()
	s := newTaskService(st)
	id := createCleanLobby(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.ReserveTask(ctx, workerA, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTaskService_SubscribeTasks(t *testing.T) {
	st := memory.New()
	s := newTaskService(st)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.SubscribeTasks(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	<-ch

	id := createCleanLobby(t, s)
	select {
	case snapshot := <-ch:
		if len(snapshot) != 1 || snapshot[0].ID != id {
			t.Fatalf("expected snapshot with the new task, got %+v", snapshot)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
}
