// Package export renders filtered task lists as CSV or PDF reports.
package export

import (
	"errors"
	"fmt"
	"time"

	"github.com/adanyl0v/go-task-board/internal/models"
)

const filterDateLayout = time.DateOnly

var ErrInvalidStatus = errors.New("invalid status")

// Filter selects the tasks of a report. Zero fields don't filter. The date
// bounds apply to the creation time and are inclusive.
type Filter struct {
	Status     models.Status
	StartDate  time.Time
	EndDate    time.Time
	AssignedTo string
}

func (f Filter) Match(task models.Task) bool {
	if f.Status != "" && task.Status != f.Status {
		return false
	}
	if !f.StartDate.IsZero() && task.CreatedAt.Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && task.CreatedAt.After(f.EndDate) {
		return false
	}
	if f.AssignedTo != "" && task.AssignedTo != f.AssignedTo {
		return false
	}
	return true
}

// Apply returns the matching tasks in input order.
func (f Filter) Apply(tasks []models.Task) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// ParseFilterDate parses a yyyy-MM-dd date as midnight UTC. An empty string
// yields the zero time.
func ParseFilterDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(filterDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want yyyy-mm-dd: %w", s, err)
	}
	return t, nil
}

// EndOfDay returns the last instant of t's day, so an end date covers the
// whole day. The zero time stays zero.
func EndOfDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location()).Add(-time.Nanosecond)
}

// ParseFilter builds a filter from raw query values. The end date covers
// its whole day.
func ParseFilter(status, startDate, endDate, assignedTo string) (Filter, error) {
	filter := Filter{
		Status:     models.Status(status),
		AssignedTo: assignedTo,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return Filter{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var err error
	filter.StartDate, err = ParseFilterDate(startDate)
	if err != nil {
		return Filter{}, err
	}
	end, err := ParseFilterDate(endDate)
	if err != nil {
		return Filter{}, err
	}
	filter.EndDate = EndOfDay(end)
	return filter, nil
}
