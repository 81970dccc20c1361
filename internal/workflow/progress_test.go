package workflow

import (
	"testing"

	"github.com/adanyl0v/go-task-board/internal/models"
)

func subtasks(done, total int) []models.Subtask {
	out := make([]models.Subtask, total)
	for i := range out {
		out[i].ID = string(rune('a' + i))
		out[i].Completed = i < done
	}
	return out
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name   string
		status models.Status
		done   int
		total  int
		want   int
	}{
		{name: "no subtasks", status: models.StatusPending, want: 0},
		{name: "one of three", status: models.StatusInProgress, done: 1, total: 3, want: 33},
		{name: "two of three", status: models.StatusInProgress, done: 2, total: 3, want: 67},
		{name: "half up", status: models.StatusInProgress, done: 1, total: 8, want: 13},
		{name: "half", status: models.StatusInProgress, done: 1, total: 2, want: 50},
		{name: "all done", status: models.StatusInProgress, done: 4, total: 4, want: 100},
		{name: "completed without subtasks", status: models.StatusCompleted, want: 100},
		{name: "approved with open subtasks", status: models.StatusApproved, done: 0, total: 3, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := models.Task{Status: tt.status, Subtasks: subtasks(tt.done, tt.total)}
			if got := Progress(task); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestProgress_Range(t *testing.T) {
	for _, status := range models.Statuses {
		for total := 0; total <= 12; total++ {
			for done := 0; done <= total; done++ {
				got := Progress(models.Task{Status: status, Subtasks: subtasks(done, total)})
				if got < 0 || got > 100 {
					t.Fatalf("progress out of range for %s %d/%d: %d", status, done, total, got)
				}
			}
		}
	}
}
