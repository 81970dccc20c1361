package workflow

import (
	"time"

	"github.com/adanyl0v/go-task-board/internal/models"
)

type Action string

const (
	ActionReserve  Action = "reserve"
	ActionToggle   Action = "toggle"
	ActionComplete Action = "complete"
	ActionApprove  Action = "approve"
	ActionUnassign Action = "unassign"
	ActionEdit     Action = "edit"
)

// AllowedActions lists what the viewer could do with the task right now.
// It runs the same guards as the transitions themselves.
func AllowedActions(viewer models.Profile, task models.Task) []Action {
	var now time.Time
	var actions []Action

	if _, err := Reserve(viewer, task, now); err == nil {
		actions = append(actions, ActionReserve)
	}
	if len(task.Subtasks) > 0 {
		if _, err := ToggleSubtask(viewer, task, task.Subtasks[0].ID, now); err == nil {
			actions = append(actions, ActionToggle)
		}
	}
	if _, err := Complete(viewer, task, now); err == nil {
		actions = append(actions, ActionComplete)
	}
	if _, err := Approve(viewer, task, now); err == nil {
		actions = append(actions, ActionApprove)
	}
	if viewer.IsAdmin() && task.Status != models.StatusPending {
		if _, err := Unassign(viewer, task, now); err == nil {
			actions = append(actions, ActionUnassign)
		}
	}
	if viewer.IsAdmin() {
		actions = append(actions, ActionEdit)
	}
	return actions
}
