package board

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/adanyl0v/go-task-board/internal/models"
	"github.com/adanyl0v/go-task-board/internal/workflow"
)

var (
	admin   = models.Profile{ID: "admin-1", Name: "Ana", Role: models.RoleAdmin}
	workerA = models.Profile{ID: "user-a", Name: "Bruno", Role: models.RoleUser}
)

func task(id string, status models.Status, day int) models.Task {
	return models.Task{
		ID:      id,
		Title:   "task " + id,
		DueDate: time.Date(2024, 6, day, 0, 0, 0, 0, time.UTC),
		Status:  status,
	}
}

func pendingTasks(n int) []models.Task {
	tasks := make([]models.Task, n)
	for i := range tasks {
		tasks[i] = task(fmt.Sprint(i+1), models.StatusPending, i+1)
	}
	return tasks
}

func column(t *testing.T, v View, status models.Status) Column {
	t.Helper()
	for _, c := range v.Columns {
		if c.Status == status {
			return c
		}
	}
	t.Fatalf("no column for %s", status)
	return Column{}
}

func TestBoard_PaginationClamps(t *testing.T) {
	b := New(2)
	b.Replace(pendingTasks(5))

	if got := b.PageCount(models.StatusPending); got != 3 {
		t.Fatalf("expected 3 pages, got %d", got)
	}
	if got := b.SetPage(models.StatusPending, 10); got != 3 {
		t.Fatalf("expected clamp to last page, got %d", got)
	}
	if got := b.SetPage(models.StatusPending, -1); got != 1 {
		t.Fatalf("expected clamp to first page, got %d", got)
	}
	if got := b.PrevPage(models.StatusPending); got != 1 {
		t.Fatalf("expected to stay on first page, got %d", got)
	}

	b.NextPage(models.StatusPending)
	b.NextPage(models.StatusPending)
	col := column(t, b.View(workerA), models.StatusPending)
	if col.Page != 3 || len(col.Cards) != 1 || col.Cards[0].ID != "5" {
		t.Fatalf("expected last page with task 5, got %+v", col)
	}
}

func TestBoard_EmptyBucketHasOnePage(t *testing.T) {
	b := New(2)

	for _, status := range models.Statuses {
		if got := b.PageCount(status); got != 1 {
			t.Fatalf("expected 1 page for %s, got %d", status, got)
		}
		if got := b.NextPage(status); got != 1 {
			t.Fatalf("expected page 1 for %s, got %d", status, got)
		}
	}
}

func TestBoard_FirstPageNeverEmpty(t *testing.T) {
	for n := 1; n <= 7; n++ {
		b := New(2)
		b.Replace(pendingTasks(n))
		col := column(t, b.View(workerA), models.StatusPending)
		if len(col.Cards) == 0 {
			t.Fatalf("expected cards on page 1 with %d tasks", n)
		}
	}
}

func TestBoard_PagesAreIndependent(t *testing.T) {
	b := New(1)
	tasks := append(pendingTasks(3),
		task("p1", models.StatusInProgress, 1),
		task("p2", models.StatusInProgress, 2),
	)
	b.Replace(tasks)

	b.SetPage(models.StatusPending, 3)
	b.SetPage(models.StatusInProgress, 2)

	// Task 3 moves to in_progress: pending shrinks, the other page stays.
	tasks[2].Status = models.StatusInProgress
	b.Replace(tasks)

	if got := b.Page(models.StatusPending); got != 2 {
		t.Fatalf("expected pending re-clamped to 2, got %d", got)
	}
	if got := b.Page(models.StatusInProgress); got != 2 {
		t.Fatalf("expected in_progress page kept, got %d", got)
	}
}

func TestBoard_BucketsPartitionTasks(t *testing.T) {
	b := New(2)
	b.Replace([]models.Task{
		task("a", models.StatusApproved, 1),
		task("b", models.StatusPending, 2),
		task("c", models.StatusCompleted, 3),
		task("d", models.StatusInProgress, 4),
		task("e", models.StatusPending, 5),
	})

	total := 0
	for _, status := range models.Statuses {
		for _, t2 := range b.Bucket(status) {
			if t2.Status != status {
				t.Fatalf("task %s in wrong bucket %s", t2.ID, status)
			}
		}
		total += len(b.Bucket(status))
	}
	if total != 5 {
		t.Fatalf("expected 5 tasks across buckets, got %d", total)
	}

	pending := b.Bucket(models.StatusPending)
	if pending[0].ID != "b" || pending[1].ID != "e" {
		t.Fatalf("expected snapshot order kept, got %s, %s", pending[0].ID, pending[1].ID)
	}
}

func TestBoard_CleanLobbyAppearsOnlyInPending(t *testing.T) {
	now := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	created, err := workflow.Create(admin, workflow.TaskInput{
		Title:    "Clean lobby",
		DueDate:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Subtasks: []workflow.SubtaskInput{{Title: "sweep"}, {Title: "mop"}},
	}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	created.ID = "lobby"

	b := New(DefaultPageSize)
	b.Replace([]models.Task{created})

	view := b.View(workerA)
	for _, col := range view.Columns {
		if col.Status == models.StatusPending {
			if len(col.Cards) != 1 || col.Cards[0].Progress != 0 || col.Cards[0].TotalSubtasks != 2 {
				t.Fatalf("expected lobby card with progress 0, got %+v", col.Cards)
			}
			continue
		}
		if col.Total != 0 {
			t.Fatalf("expected %s to be empty, got %d", col.Status, col.Total)
		}
	}
}

func TestBoard_UnassignedTaskReturnsToPending(t *testing.T) {
	now := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	pending := task("t1", models.StatusPending, 1)
	reserved, err := workflow.Reserve(workerA, pending, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b := New(2)
	b.Replace([]models.Task{reserved})
	if len(b.Bucket(models.StatusInProgress)) != 1 {
		t.Fatal("expected task in progress")
	}

	unassigned, err := workflow.Unassign(admin, reserved, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b.Replace([]models.Task{unassigned})

	if len(b.Bucket(models.StatusInProgress)) != 0 {
		t.Fatal("expected in_progress to be empty")
	}
	back := b.Bucket(models.StatusPending)
	if len(back) != 1 || back[0].AssignedTo != "" || back[0].AssignedUserName != "" {
		t.Fatalf("expected unassigned task in pending, got %+v", back)
	}
}

func TestBoard_Search(t *testing.T) {
	b := New(1)
	b.Replace([]models.Task{
		{ID: "1", Title: "Clean lobby", Status: models.StatusPending},
		{ID: "2", Title: "Fix door", Status: models.StatusPending},
		{ID: "3", Title: "clean stairs", Status: models.StatusPending},
	})
	b.SetPage(models.StatusPending, 3)

	b.Search("CLEAN")
	if got := len(b.Tasks()); got != 2 {
		t.Fatalf("expected 2 matches, got %d", got)
	}
	if got := b.Page(models.StatusPending); got != 2 {
		t.Fatalf("expected page re-clamped to 2, got %d", got)
	}

	b.Search("")
	if got := len(b.Tasks()); got != 3 {
		t.Fatalf("expected all tasks, got %d", got)
	}
}

func TestBoard_CardActions(t *testing.T) {
	b := New(2)
	b.Replace([]models.Task{task("1", models.StatusPending, 1)})

	col := column(t, b.View(workerA), models.StatusPending)
	if len(col.Cards[0].Actions) != 1 || col.Cards[0].Actions[0] != workflow.ActionReserve {
		t.Fatalf("expected reserve action, got %v", col.Cards[0].Actions)
	}
}

func TestBoard_Follow(t *testing.T) {
	b := New(2)
	snapshots := make(chan []models.Task, 2)
	snapshots <- pendingTasks(1)
	snapshots <- pendingTasks(3)
	close(snapshots)

	replaced := 0
	err := b.Follow(context.Background(), snapshots, func() { replaced++ })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if replaced != 2 {
		t.Fatalf("expected 2 replacements, got %d", replaced)
	}
	if got := len(b.Tasks()); got != 3 {
		t.Fatalf("expected the latest snapshot, got %d tasks", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = b.Follow(ctx, make(chan []models.Task), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}
