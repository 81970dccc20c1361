// Package board presents the task snapshot as four paginated status
// columns. The snapshot always comes from the store and is replaced
// wholesale; the board never applies local edits.
package board

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/adanyl0v/go-task-board/internal/models"
	"github.com/adanyl0v/go-task-board/internal/workflow"
)

const DefaultPageSize = 2

type Card struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Description       string            `json:"description,omitempty"`
	DueDate           time.Time         `json:"due_date"`
	Status            models.Status     `json:"status"`
	Progress          int               `json:"progress"`
	AssignedUserName  string            `json:"assigned_user_name,omitempty"`
	CompletedSubtasks int               `json:"completed_subtasks"`
	TotalSubtasks     int               `json:"total_subtasks"`
	Subtasks          []models.Subtask  `json:"subtasks"`
	Actions           []workflow.Action `json:"actions"`
}

type Column struct {
	Status models.Status `json:"status"`
	Page   int           `json:"page"`
	Pages  int           `json:"pages"`
	Total  int           `json:"total"`
	Cards  []Card        `json:"cards"`
}

type View struct {
	Query   string   `json:"query,omitempty"`
	Columns []Column `json:"columns"`
}

// Board is safe for concurrent use. Each status column keeps its own
// 1-based page index.
type Board struct {
	mu       sync.RWMutex
	pageSize int
	tasks    []models.Task
	query    string
	pages    map[models.Status]int
}

// New returns an empty board. A non-positive pageSize falls back to
// DefaultPageSize.
func New(pageSize int) *Board {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	pages := make(map[models.Status]int, len(models.Statuses))
	for _, status := range models.Statuses {
		pages[status] = 1
	}
	return &Board{
		pageSize: pageSize,
		pages:    pages,
	}
}

func (b *Board) PageSize() int {
	return b.pageSize
}

// Replace swaps in a new snapshot and re-clamps every page index.
func (b *Board) Replace(tasks []models.Task) {
	snapshot := make([]models.Task, len(tasks))
	for i, t := range tasks {
		snapshot[i] = t.Clone()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks = snapshot
	b.clampLocked()
}

// Tasks returns the current snapshot filtered by the search query.
func (b *Board) Tasks() []models.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]models.Task, 0, len(b.tasks))
	for _, t := range b.tasks {
		if b.matchesLocked(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Search filters the board by a case-insensitive title substring. An
// empty query shows every task.
func (b *Board) Search(query string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.query = strings.TrimSpace(query)
	b.clampLocked()
}

// Bucket returns the tasks in the given status, in snapshot order.
func (b *Board) Bucket(status models.Status) []models.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()

	bucket := b.bucketLocked(status)
	out := make([]models.Task, len(bucket))
	for i, t := range bucket {
		out[i] = t.Clone()
	}
	return out
}

func (b *Board) PageCount(status models.Status) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.pageCountLocked(len(b.bucketLocked(status)))
}

func (b *Board) Page(status models.Status) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.pages[status]
}

// SetPage moves one column to the given page, clamped to the available
// range, and returns the resulting page.
func (b *Board) SetPage(status models.Status, page int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.setPageLocked(status, page)
}

func (b *Board) NextPage(status models.Status) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.setPageLocked(status, b.pages[status]+1)
}

func (b *Board) PrevPage(status models.Status) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.setPageLocked(status, b.pages[status]-1)
}

// View renders the current page of every column for the viewer.
func (b *Board) View(viewer models.Profile) View {
	b.mu.RLock()
	defer b.mu.RUnlock()

	view := View{
		Query:   b.query,
		Columns: make([]Column, 0, len(models.Statuses)),
	}
	for _, status := range models.Statuses {
		bucket := b.bucketLocked(status)
		page := b.pages[status]

		start := (page - 1) * b.pageSize
		end := min(start+b.pageSize, len(bucket))

		cards := make([]Card, 0, b.pageSize)
		for _, t := range bucket[start:end] {
			cards = append(cards, NewCard(viewer, t))
		}

		view.Columns = append(view.Columns, Column{
			Status: status,
			Page:   page,
			Pages:  b.pageCountLocked(len(bucket)),
			Total:  len(bucket),
			Cards:  cards,
		})
	}
	return view
}

// Follow applies snapshots in arrival order until the channel is closed or
// ctx is done. onReplace, if set, runs after every applied snapshot.
func (b *Board) Follow(ctx context.Context, snapshots <-chan []models.Task, onReplace func()) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tasks, ok := <-snapshots:
			if !ok {
				return nil
			}
			b.Replace(tasks)
			if onReplace != nil {
				onReplace()
			}
		}
	}
}

func NewCard(viewer models.Profile, task models.Task) Card {
	subtasks := task.Subtasks
	if subtasks == nil {
		subtasks = []models.Subtask{}
	}
	actions := workflow.AllowedActions(viewer, task)
	if actions == nil {
		actions = []workflow.Action{}
	}

	return Card{
		ID:                task.ID,
		Title:             task.Title,
		Description:       task.Description,
		DueDate:           task.DueDate,
		Status:            task.Status,
		Progress:          workflow.Progress(task),
		AssignedUserName:  task.AssignedUserName,
		CompletedSubtasks: task.CompletedSubtasks(),
		TotalSubtasks:     len(task.Subtasks),
		Subtasks:          subtasks,
		Actions:           actions,
	}
}

func (b *Board) setPageLocked(status models.Status, page int) int {
	if _, ok := b.pages[status]; !ok {
		return 1
	}
	page = clamp(page, 1, b.pageCountLocked(len(b.bucketLocked(status))))
	b.pages[status] = page
	return page
}

func (b *Board) clampLocked() {
	for status, page := range b.pages {
		b.pages[status] = clamp(page, 1, b.pageCountLocked(len(b.bucketLocked(status))))
	}
}

func (b *Board) bucketLocked(status models.Status) []models.Task {
	var out []models.Task
	for _, t := range b.tasks {
		if t.Status == status && b.matchesLocked(t) {
			out = append(out, t)
		}
	}
	return out
}

func (b *Board) matchesLocked(t models.Task) bool {
	if b.query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), strings.ToLower(b.query))
}

// pageCountLocked is never below 1, even for an empty column.
func (b *Board) pageCountLocked(n int) int {
	return max(1, (n+b.pageSize-1)/b.pageSize)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
