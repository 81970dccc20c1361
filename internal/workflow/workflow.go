package workflow

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adanyl0v/go-task-board/internal/models"
)

const (
	OpCreate        = "create"
	OpReserve       = "reserve"
	OpUnassign      = "unassign"
	OpToggleSubtask = "toggle subtask"
	OpComplete      = "complete"
	OpApprove       = "approve"
	OpEdit          = "edit"
)

// TaskInput carries the admin-editable fields of a task. On edit the
// subtask list replaces the stored one wholesale.
type TaskInput struct {
	Title       string
	Description string
	DueDate     time.Time
	Subtasks    []SubtaskInput
}

// SubtaskInput with an empty ID creates a new subtask. A non-empty ID keeps
// the creation time of the matching stored subtask.
type SubtaskInput struct {
	ID        string
	Title     string
	Completed bool
}

// CanTransition reports whether the lifecycle has an edge from -> to.
func CanTransition(from, to models.Status) bool {
	switch from {
	case models.StatusPending:
		return to == models.StatusInProgress || to == models.StatusPending
	case models.StatusInProgress:
		return to == models.StatusCompleted || to == models.StatusPending
	case models.StatusCompleted:
		return to == models.StatusApproved || to == models.StatusPending
	default:
		return false
	}
}

// CanEdit gates subtask toggling and completion.
func CanEdit(user models.Profile, task models.Task) bool {
	if user.IsAdmin() {
		return true
	}
	return user.ID != "" &&
		user.ID == task.AssignedTo &&
		task.Status == models.StatusInProgress
}

func Create(actor models.Profile, in TaskInput, now time.Time) (models.Task, error) {
	if !actor.IsAdmin() {
		return models.Task{}, invalidf(OpCreate, "", "only admins can create tasks")
	}

	title, err := validateInput(OpCreate, in)
	if err != nil {
		return models.Task{}, err
	}

	subtasks := make([]models.Subtask, 0, len(in.Subtasks))
	for _, st := range in.Subtasks {
		subtasks = append(subtasks, models.Subtask{
			ID:        uuid.NewString(),
			Title:     strings.TrimSpace(st.Title),
			Completed: false,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	return models.Task{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		DueDate:     in.DueDate,
		Status:      models.StatusPending,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Subtasks:    subtasks,
	}, nil
}

func Reserve(actor models.Profile, task models.Task, now time.Time) (models.Task, error) {
	if actor.ID == "" {
		return models.Task{}, invalidf(OpReserve, task.Status, "anonymous users cannot reserve tasks")
	}
	if actor.IsAdmin() {
		return models.Task{}, invalidf(OpReserve, task.Status, "admins cannot reserve tasks")
	}
	if task.Status != models.StatusPending {
		return models.Task{}, invalidf(OpReserve, task.Status, "task is not pending")
	}
	if task.AssignedTo != "" {
		return models.Task{}, invalidf(OpReserve, task.Status, "task is already assigned")
	}

	next := task.Clone()
	next.Status = models.StatusInProgress
	next.AssignedTo = actor.ID
	next.AssignedUserName = actor.Name
	next.UpdatedAt = now
	return next, nil
}

func Unassign(actor models.Profile, task models.Task, now time.Time) (models.Task, error) {
	if !actor.IsAdmin() {
		return models.Task{}, invalidf(OpUnassign, task.Status, "only admins can unassign tasks")
	}
	if !CanTransition(task.Status, models.StatusPending) {
		return models.Task{}, invalidf(OpUnassign, task.Status, "approved tasks are final")
	}

	next := task.Clone()
	next.Status = models.StatusPending
	next.AssignedTo = ""
	next.AssignedUserName = ""
	next.CompletedAt = nil
	next.UpdatedAt = now
	return next, nil
}

// ToggleSubtask flips one subtask. Admins may toggle in any status; an
// unticked subtask on a completed task blocks its approval.
func ToggleSubtask(actor models.Profile, task models.Task, subtaskID string, now time.Time) (models.Task, error) {
	if !CanEdit(actor, task) {
		return models.Task{}, invalidf(OpToggleSubtask, task.Status, "user cannot edit this task")
	}

	i := task.SubtaskIndex(subtaskID)
	if i < 0 {
		return models.Task{}, invalidf(OpToggleSubtask, task.Status, "subtask %q not found", subtaskID)
	}

	next := task.Clone()
	next.Subtasks[i].Completed = !next.Subtasks[i].Completed
	next.Subtasks[i].UpdatedAt = now
	next.UpdatedAt = now
	return next, nil
}

func Complete(actor models.Profile, task models.Task, now time.Time) (models.Task, error) {
	if !CanEdit(actor, task) {
		return models.Task{}, invalidf(OpComplete, task.Status, "user cannot edit this task")
	}
	if task.Status != models.StatusInProgress {
		return models.Task{}, invalidf(OpComplete, task.Status, "task is not in progress")
	}
	if !task.AllSubtasksCompleted() {
		return models.Task{}, invalidf(OpComplete, task.Status, "%d of %d subtasks completed",
			task.CompletedSubtasks(), len(task.Subtasks))
	}

	next := task.Clone()
	next.Status = models.StatusCompleted
	completedAt := now
	next.CompletedAt = &completedAt
	next.UpdatedAt = now
	return next, nil
}

func Approve(actor models.Profile, task models.Task, now time.Time) (models.Task, error) {
	if !actor.IsAdmin() {
		return models.Task{}, invalidf(OpApprove, task.Status, "only admins can approve tasks")
	}
	if task.Status != models.StatusCompleted {
		return models.Task{}, invalidf(OpApprove, task.Status, "task is not completed")
	}
	if !task.AllSubtasksCompleted() {
		return models.Task{}, invalidf(OpApprove, task.Status, "%d of %d subtasks completed",
			task.CompletedSubtasks(), len(task.Subtasks))
	}

	next := task.Clone()
	next.Status = models.StatusApproved
	next.UpdatedAt = now
	return next, nil
}

// Edit replaces title, description, due date and subtasks. Completion state
// of a subtask survives only if the caller carries it over in the input.
func Edit(actor models.Profile, task models.Task, in TaskInput, now time.Time) (models.Task, error) {
	if !actor.IsAdmin() {
		return models.Task{}, invalidf(OpEdit, task.Status, "only admins can edit tasks")
	}

	title, err := validateInput(OpEdit, in)
	if err != nil {
		return models.Task{}, err
	}

	existing := make(map[string]models.Subtask, len(task.Subtasks))
	for _, st := range task.Subtasks {
		existing[st.ID] = st
	}

	seen := make(map[string]struct{}, len(in.Subtasks))
	subtasks := make([]models.Subtask, 0, len(in.Subtasks))
	for _, st := range in.Subtasks {
		sub := models.Subtask{
			ID:        st.ID,
			Title:     strings.TrimSpace(st.Title),
			Completed: st.Completed,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if sub.ID == "" {
			sub.ID = uuid.NewString()
		} else if prev, ok := existing[sub.ID]; ok {
			sub.CreatedAt = prev.CreatedAt
			if prev.Title == sub.Title && prev.Completed == sub.Completed {
				sub.UpdatedAt = prev.UpdatedAt
			}
		}

		if _, dup := seen[sub.ID]; dup {
			return models.Task{}, validationf(OpEdit, "duplicate subtask id %q", sub.ID)
		}
		seen[sub.ID] = struct{}{}
		subtasks = append(subtasks, sub)
	}

	next := task.Clone()
	next.Title = title
	next.Description = strings.TrimSpace(in.Description)
	next.DueDate = in.DueDate
	next.Subtasks = subtasks
	next.UpdatedAt = now
	return next, nil
}

func validateInput(op string, in TaskInput) (string, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return "", validationf(op, "title is required")
	}
	if in.DueDate.IsZero() {
		return "", validationf(op, "due date is required")
	}
	for i, st := range in.Subtasks {
		if strings.TrimSpace(st.Title) == "" {
			return "", validationf(op, "subtask %d has no title", i+1)
		}
	}
	return title, nil
}
