package workflow

import "github.com/adanyl0v/go-task-board/internal/models"

// Progress returns the completion percentage shown on a task card.
// Closed tasks are always 100; otherwise the share of completed subtasks,
// rounded half up, or 0 when there are none.
func Progress(task models.Task) int {
	if task.Status == models.StatusCompleted || task.Status == models.StatusApproved {
		return 100
	}

	total := len(task.Subtasks)
	if total == 0 {
		return 0
	}
	done := task.CompletedSubtasks()
	// round(100*done/total) in integers: floor((200*done + total) / (2*total))
	return (200*done + total) / (2 * total)
}
