package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-board/internal/models"
	"github.com/adanyl0v/go-task-board/internal/store"
	"github.com/adanyl0v/go-task-board/internal/workflow"
)

type taskServiceImpl struct {
	logger zerolog.Logger
	tasks  store.TaskStore
	now    func() time.Time
}

func NewTaskService(
	logger zerolog.Logger,
	tasks store.TaskStore,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		tasks:  tasks,
		now:    time.Now,
	}
}

func (s *taskServiceImpl) ListTasks(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return nil, workflow.Persistence("list tasks", err)
	}
	return tasks, nil
}

func (s *taskServiceImpl) SubscribeTasks(ctx context.Context) (<-chan []models.Task, error) {
	ch, err := s.tasks.SubscribeTasks(ctx)
	if err != nil {
		return nil, workflow.Persistence("subscribe tasks", err)
	}
	return ch, nil
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, actor models.Profile, in workflow.TaskInput) (string, error) {
	task, err := workflow.Create(actor, in, s.now())
	if err != nil {
		s.logRejected(workflow.OpCreate, actor, "", err)
		return "", err
	}

	// The write outlives a client that hangs up mid-request.
	taskID, err := s.tasks.CreateTask(context.WithoutCancel(ctx), &task)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", actor.ID).
			Msg("failed to create task")
		return "", workflow.Persistence(workflow.OpCreate, err)
	}

	s.logger.Info().
		Str("task_id", taskID).
		Str("user_id", actor.ID).
		Int("subtasks", len(task.Subtasks)).
		Msg("created task")
	return taskID, nil
}

func (s *taskServiceImpl) EditTask(ctx context.Context, actor models.Profile, taskID string, in workflow.TaskInput) error {
	return s.apply(ctx, workflow.OpEdit, actor, taskID, func(task models.Task, now time.Time) (models.Task, error) {
		return workflow.Edit(actor, task, in, now)
	})
}

func (s *taskServiceImpl) ReserveTask(ctx context.Context, actor models.Profile, taskID string) error {
	return s.apply(ctx, workflow.OpReserve, actor, taskID, func(task models.Task, now time.Time) (models.Task, error) {
		return workflow.Reserve(actor, task, now)
	})
}

func (s *taskServiceImpl) UnassignTask(ctx context.Context, actor models.Profile, taskID string) error {
	return s.apply(ctx, workflow.OpUnassign, actor, taskID, func(task models.Task, now time.Time) (models.Task, error) {
		return workflow.Unassign(actor, task, now)
	})
}

func (s *taskServiceImpl) ToggleSubtask(ctx context.Context, actor models.Profile, taskID, subtaskID string) error {
	return s.apply(ctx, workflow.OpToggleSubtask, actor, taskID, func(task models.Task, now time.Time) (models.Task, error) {
		return workflow.ToggleSubtask(actor, task, subtaskID, now)
	})
}

func (s *taskServiceImpl) CompleteTask(ctx context.Context, actor models.Profile, taskID string) error {
	return s.apply(ctx, workflow.OpComplete, actor, taskID, func(task models.Task, now time.Time) (models.Task, error) {
		return workflow.Complete(actor, task, now)
	})
}

func (s *taskServiceImpl) ApproveTask(ctx context.Context, actor models.Profile, taskID string) error {
	return s.apply(ctx, workflow.OpApprove, actor, taskID, func(task models.Task, now time.Time) (models.Task, error) {
		return workflow.Approve(actor, task, now)
	})
}

// apply loads the task, derives the next version with transition and
// stores it only if nobody updated the task in between.
func (s *taskServiceImpl) apply(
	ctx context.Context,
	op string,
	actor models.Profile,
	taskID string,
	transition func(task models.Task, now time.Time) (models.Task, error),
) error {
	ctx = context.WithoutCancel(ctx)

	current, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Warn().
				Str("op", op).
				Str("task_id", taskID).
				Msg("task not found")
			return workflow.InvalidTransition(op, "", "task not found")
		}

		s.logger.Error().
			Err(err).
			Str("op", op).
			Str("task_id", taskID).
			Msg("failed to get task")
		return workflow.Persistence(op, err)
	}

	next, err := transition(*current, s.now())
	if err != nil {
		s.logRejected(op, actor, taskID, err)
		return err
	}

	err = s.tasks.UpdateTask(ctx, &next, store.GuardOf(*current))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrGuardFailed):
			s.logger.Warn().
				Str("op", op).
				Str("task_id", taskID).
				Str("user_id", actor.ID).
				Msg("task changed concurrently")
			return workflow.InvalidTransition(op, current.Status, "task changed concurrently")
		case errors.Is(err, store.ErrNotFound):
			return workflow.InvalidTransition(op, current.Status, "task no longer exists")
		default:
			s.logger.Error().
				Err(err).
				Str("op", op).
				Str("task_id", taskID).
				Msg("failed to update task")
			return workflow.Persistence(op, err)
		}
	}

	s.logger.Info().
		Str("op", op).
		Str("task_id", taskID).
		Str("user_id", actor.ID).
		Str("from", string(current.Status)).
		Str("to", string(next.Status)).
		Msg("updated task")
	return nil
}

func (s *taskServiceImpl) logRejected(op string, actor models.Profile, taskID string, err error) {
	s.logger.Warn().
		Err(err).
		Str("op", op).
		Str("task_id", taskID).
		Str("user_id", actor.ID).
		Msg("rejected task operation")
}
