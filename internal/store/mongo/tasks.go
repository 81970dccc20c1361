package mongo

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adanyl0v/go-task-board/internal/models"
	"github.com/adanyl0v/go-task-board/internal/store"
)

var tasksOrder = bson.D{
	{Key: "dueDate", Value: 1},
	{Key: "createdAt", Value: 1},
	{Key: "_id", Value: 1},
}

func (s *Store) CreateTask(ctx context.Context, task *models.Task) (string, error) {
	taskUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate task uuid")
		return "", err
	}

	doc := task.Clone()
	doc.ID = taskUUID.String()
	doc.Revision = 0
	if doc.Subtasks == nil {
		doc.Subtasks = []models.Subtask{}
	}

	_, err = s.tasks.InsertOne(ctx, doc)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return "", err
	}
	s.logger.Debug().
		Str("task_id", doc.ID).
		Msg("inserted task")
	return doc.ID, nil
}

func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	err := s.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if err != nil {
		if notFound(err) {
			return nil, store.ErrNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to find task")
		return nil, err
	}
	return &task, nil
}

func (s *Store) ListTasks(ctx context.Context) ([]models.Task, error) {
	cursor, err := s.tasks.Find(ctx, bson.D{}, options.Find().SetSort(tasksOrder))
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to find tasks")
		return nil, err
	}

	tasks := make([]models.Task, 0)
	err = cursor.All(ctx, &tasks)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to decode tasks")
		return nil, err
	}
	return tasks, nil
}

func (s *Store) UpdateTask(ctx context.Context, task *models.Task, guard store.Guard) error {
	doc := task.Clone()
	doc.Revision = guard.Revision + 1
	if doc.Subtasks == nil {
		doc.Subtasks = []models.Subtask{}
	}

	filter := bson.M{
		"_id":        task.ID,
		"status":     guard.Status,
		"assignedTo": guard.AssignedTo,
		"revision":   guard.Revision,
	}
	res, err := s.tasks.ReplaceOne(ctx, filter, doc)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to replace task")
		return err
	}

	if res.MatchedCount == 0 {
		n, err := s.tasks.CountDocuments(ctx, bson.M{"_id": task.ID}, options.Count().SetLimit(1))
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("task_id", task.ID).
				Msg("failed to count tasks")
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		s.logger.Debug().
			Str("task_id", task.ID).
			Str("expected_status", string(guard.Status)).
			Int64("expected_revision", guard.Revision).
			Msg("task guard failed")
		return store.ErrGuardFailed
	}

	s.logger.Debug().
		Str("task_id", task.ID).
		Str("status", string(task.Status)).
		Msg("replaced task")
	return nil
}

func (s *Store) SubscribeTasks(ctx context.Context) (<-chan []models.Task, error) {
	stream, err := s.tasks.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to watch tasks")
		return nil, err
	}

	// Watch first, then read, so no change falls between the two.
	initial, err := s.ListTasks(ctx)
	if err != nil {
		_ = stream.Close(context.Background())
		return nil, err
	}

	ch := make(chan []models.Task, 1)
	ch <- initial

	go func() {
		defer close(ch)
		defer func() { _ = stream.Close(context.Background()) }()

		for stream.Next(ctx) {
			op, _ := stream.Current.Lookup("operationType").StringValueOK()
			s.logger.Trace().
				Str("operation", op).
				Msg("received task change")

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

		if err := stream.Err(); err != nil && ctx.Err() == nil {
			s.logger.Error().
				Err(err).
				Msg("task change stream failed")
		}
	}()

	return ch, nil
}
