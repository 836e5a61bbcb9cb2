package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"task_tracker/internal/task"

	"github.com/go-redis/redis/v8"
)

const (
	allTasksKey       = "tasks:all"
	maxDeleteAttempts = 3
)

func taskKey(id string) string {
	return "task:" + id
}

func userTasksKey(username string) string {
	return "tasks:user:" + username
}

// TaskRepository keeps each task as JSON under task:<id> plus two id sets,
// one for every task and one per owner.
type TaskRepository struct {
	rdb *redis.Client
}

func NewTaskRepository(rdb *redis.Client) *TaskRepository {
	return &TaskRepository{rdb: rdb}
}

func (r *TaskRepository) Insert(ctx context.Context, t *task.Task) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, taskKey(t.ID), data, 0)
		pipe.SAdd(ctx, allTasksKey, t.ID)
		pipe.SAdd(ctx, userTasksKey(t.Username), t.ID)
		return nil
	})
	if err != nil {
		return storeError("insert task", err)
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*task.Task, error) {
	data, err := r.rdb.Get(ctx, taskKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, task.ErrTaskNotFound
		}
		return nil, storeError("get task", err)
	}
	return decodeTask(data)
}

// Replace only writes when the key already exists. The owner never changes,
// so the id sets are left alone.
func (r *TaskRepository) Replace(ctx context.Context, t *task.Task) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}

	ok, err := r.rdb.SetXX(ctx, taskKey(t.ID), data, 0).Result()
	if err != nil {
		return storeError("replace task", err)
	}
	if !ok {
		return task.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) DeleteByID(ctx context.Context, id string) error {
	key := taskKey(id)

	deleteFn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return task.ErrTaskNotFound
			}
			return err
		}

		t, err := decodeTask(data)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SRem(ctx, allTasksKey, id)
			pipe.SRem(ctx, userTasksKey(t.Username), id)
			return nil
		})
		return err
	}

	var err error
	for i := 0; i < maxDeleteAttempts; i++ {
		err = r.rdb.Watch(ctx, deleteFn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, task.ErrTaskNotFound):
		return err
	default:
		return storeError("delete task", err)
	}
}

func (r *TaskRepository) List(ctx context.Context) ([]*task.Task, error) {
	return r.listSet(ctx, allTasksKey)
}

func (r *TaskRepository) ListByUsername(ctx context.Context, username string) ([]*task.Task, error) {
	return r.listSet(ctx, userTasksKey(username))
}

func (r *TaskRepository) listSet(ctx context.Context, setKey string) ([]*task.Task, error) {
	ids, err := r.rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, storeError("list task ids", err)
	}

	tasks := []*task.Task{}
	if len(ids) == 0 {
		return tasks, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = taskKey(id)
	}

	values, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, storeError("list tasks", err)
	}

	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			// removed after SMEMBERS
			continue
		}
		t, err := decodeTask([]byte(s))
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})

	return tasks, nil
}

func decodeTask(data []byte) (*task.Task, error) {
	var t task.Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, storeError("decode task", err)
	}
	return &t, nil
}
