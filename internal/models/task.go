package models

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusApproved   Status = "approved"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{
	StatusPending,
	StatusInProgress,
	StatusCompleted,
	StatusApproved,
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusApproved:
		return true
	default:
		return false
	}
}

type Task struct {
	ID               string     `json:"id" bson:"_id"`
	Title            string     `json:"title" bson:"title"`
	Description      string     `json:"description,omitempty" bson:"description,omitempty"`
	DueDate          time.Time  `json:"due_date" bson:"dueDate"`
	Status           Status     `json:"status" bson:"status"`
	AssignedTo       string     `json:"assigned_to,omitempty" bson:"assignedTo"`
	AssignedUserName string     `json:"assigned_user_name,omitempty" bson:"assignedUserName"`
	CreatedBy        string     `json:"created_by" bson:"createdBy"`
	CreatedAt        time.Time  `json:"created_at" bson:"createdAt"`
	UpdatedAt        time.Time  `json:"updated_at" bson:"updatedAt"`
	CompletedAt      *time.Time `json:"completed_at,omitempty" bson:"completedAt,omitempty"`
	Subtasks         []Subtask  `json:"subtasks" bson:"subtasks"`

	// Revision is bumped by the store on every update.
	Revision int64 `json:"revision" bson:"revision"`
}

type Subtask struct {
	ID        string    `json:"id" bson:"id"`
	Title     string    `json:"title" bson:"title"`
	Completed bool      `json:"completed" bson:"completed"`
	CreatedAt time.Time `json:"created_at" bson:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" bson:"updatedAt"`
}

// Clone returns a deep copy, so callers can derive a new version of the
// task without touching the snapshot they were given.
func (t Task) Clone() Task {
	if t.Subtasks != nil {
		subtasks := make([]Subtask, len(t.Subtasks))
		copy(subtasks, t.Subtasks)
		t.Subtasks = subtasks
	}
	if t.CompletedAt != nil {
		completedAt := *t.CompletedAt
		t.CompletedAt = &completedAt
	}
	return t
}

// CompletedSubtasks returns how many subtasks are marked completed.
func (t Task) CompletedSubtasks() int {
	n := 0
	for _, st := range t.Subtasks {
		if st.Completed {
			n++
		}
	}
	return n
}

// AllSubtasksCompleted is vacuously true for a task without subtasks.
func (t Task) AllSubtasksCompleted() bool {
	return t.CompletedSubtasks() == len(t.Subtasks)
}

func (t Task) SubtaskIndex(id string) int {
	for i, st := range t.Subtasks {
		if st.ID == id {
			return i
		}
	}
	return -1
}
