package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adanyl0v/go-task-board/internal/models"
	"github.com/adanyl0v/go-task-board/internal/store"
)

const selectTasksQuery = `
SELECT id,
       title,
       description,
       due_date,
       status,
       COALESCE(assigned_to, ''),
       COALESCE(assigned_user_name, ''),
       created_by,
       created_at,
       updated_at,
       completed_at,
       subtasks,
       revision
FROM tasks
`

func scanTask(row pgx.Row) (models.Task, error) {
	var task models.Task
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.DueDate,
		&task.Status,
		&task.AssignedTo,
		&task.AssignedUserName,
		&task.CreatedBy,
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.CompletedAt,
		&task.Subtasks,
		&task.Revision,
	)
	return task, err
}

func subtasksOf(task *models.Task) []models.Subtask {
	if task.Subtasks == nil {
		return []models.Subtask{}
	}
	return task.Subtasks
}

func (s *Store) CreateTask(ctx context.Context, task *models.Task) (string, error) {
	taskUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate task uuid")
		return "", err
	}
	taskID := taskUUID.String()

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertTaskQuery = `
INSERT INTO tasks (id,
                   title,
                   description,
                   due_date,
                   status,
                   assigned_to,
                   assigned_user_name,
                   created_by,
                   created_at,
                   updated_at,
                   completed_at,
                   subtasks)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10, $11, $12)
`
	_, err = tx.Exec(
		ctx,
		insertTaskQuery,
		taskID,
		task.Title,
		task.Description,
		task.DueDate,
		task.Status,
		task.AssignedTo,
		task.AssignedUserName,
		task.CreatedBy,
		task.CreatedAt,
		task.UpdatedAt,
		task.CompletedAt,
		subtasksOf(task),
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return "", err
	}

	err = s.notifyTasksChanged(ctx, tx, taskID)
	if err != nil {
		return "", err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return "", err
	}
	s.logger.Debug().
		Str("task_id", taskID).
		Msg("inserted task")
	return taskID, nil
}

func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := scanTask(s.pgPool.QueryRow(ctx, selectTasksQuery+"WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to select task")
		return nil, err
	}
	return &task, nil
}

func (s *Store) ListTasks(ctx context.Context) ([]models.Task, error) {
	rows, err := s.pgPool.Query(ctx, selectTasksQuery+"ORDER BY due_date, created_at, id")
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks")
		return nil, err
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	return tasks, nil
}

func (s *Store) UpdateTask(ctx context.Context, task *models.Task, guard store.Guard) error {
	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const updateTaskQuery = `
UPDATE tasks
SET title = $1,
    description = $2,
    due_date = $3,
    status = $4,
    assigned_to = NULLIF($5, ''),
    assigned_user_name = NULLIF($6, ''),
    updated_at = $7,
    completed_at = $8,
    subtasks = $9,
    revision = revision + 1
WHERE id = $10 AND
      status = $11 AND
      COALESCE(assigned_to, '') = $12 AND
      revision = $13
`
	tag, err := tx.Exec(
		ctx,
		updateTaskQuery,
		task.Title,
		task.Description,
		task.DueDate,
		task.Status,
		task.AssignedTo,
		task.AssignedUserName,
		task.UpdatedAt,
		task.CompletedAt,
		subtasksOf(task),
		task.ID,
		guard.Status,
		guard.AssignedTo,
		guard.Revision,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to update task")
		return err
	}

	if tag.RowsAffected() == 0 {
		// Tell a vanished task apart from a lost race.
		var exists bool
		const existsQuery = `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`
		err = tx.QueryRow(ctx, existsQuery, task.ID).Scan(&exists)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("task_id", task.ID).
				Msg("failed to check task existence")
			return err
		}
		if !exists {
			return store.ErrNotFound
		}
		s.logger.Debug().
			Str("task_id", task.ID).
			Str("expected_status", string(guard.Status)).
			Int64("expected_revision", guard.Revision).
			Msg("task guard failed")
		return store.ErrGuardFailed
	}

	err = s.notifyTasksChanged(ctx, tx, task.ID)
	if err != nil {
		return err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return err
	}
	s.logger.Debug().
		Str("task_id", task.ID).
		Str("status", string(task.Status)).
		Msg("updated task")
	return nil
}

// notifyTasksChanged queues a notification that is delivered only if the
// surrounding transaction commits.
func (s *Store) notifyTasksChanged(ctx context.Context, tx pgx.Tx, taskID string) error {
	_, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, tasksChannel, taskID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to notify task change")
	}
	return err
}

func (s *Store) SubscribeTasks(ctx context.Context) (<-chan []models.Task, error) {
	conn, err := s.pgPool.Acquire(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to acquire connection")
		return nil, err
	}

	_, err = conn.Exec(ctx, "LISTEN "+tasksChannel)
	if err != nil {
		conn.Release()
		s.logger.Error().
			Err(err).
			Msg("failed to listen for task changes")
		return nil, err
	}

	// Listen first, then read, so no change falls between the two.
	initial, err := s.ListTasks(ctx)
	if err != nil {
		s.unlisten(conn)
		return nil, err
	}

	ch := make(chan []models.Task, 1)
	ch <- initial

	go func() {
		defer close(ch)
		defer s.unlisten(conn)

		for {
			notification, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Error().
						Err(err).
						Msg("failed to wait for task notification")
				}
				return
			}
			s.logger.Trace().
				Str("task_id", notification.Payload).
				Msg("received task notification")

			tasks, err := s.ListTasks(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Error().
						Err(err).
						Msg("failed to refresh tasks, closing subscription")
				}
				return
			}

			select {
			case ch <- tasks:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

func (s *Store) unlisten(conn *pgxpool.Conn) {
	// The pooled connection would keep listening otherwise.
	_, err := conn.Exec(context.Background(), "UNLISTEN *")
	if err != nil {
		s.logger.Warn().
			Err(err).
			Msg("failed to unlisten, dropping connection")
		_ = conn.Conn().Close(context.Background())
	}
	conn.Release()
}
