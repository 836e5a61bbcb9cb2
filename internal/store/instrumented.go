package store

import (
	"context"
	"task_tracker/internal/observability"
	"task_tracker/internal/task"
	"task_tracker/internal/user"
	"time"
)

type instrumentedUsers struct {
	backend string
	next    user.UserRepositoryInterface
	metrics *observability.Metrics
}

// InstrumentUsers records the duration and outcome of every call on repo.
// With nil metrics repo is returned as is.
func InstrumentUsers(backend string, repo user.UserRepositoryInterface, metrics *observability.Metrics) user.UserRepositoryInterface {
	if metrics == nil {
		return repo
	}
	return &instrumentedUsers{backend: backend, next: repo, metrics: metrics}
}

func (r *instrumentedUsers) Create(ctx context.Context, u *user.User) (err error) {
	defer func(start time.Time) {
		r.metrics.ObserveStoreOperation(r.backend, "create_user", start, err)
	}(time.Now())
	return r.next.Create(ctx, u)
}

func (r *instrumentedUsers) GetByUsername(ctx context.Context, username string) (u *user.User, err error) {
	defer func(start time.Time) {
		r.metrics.ObserveStoreOperation(r.backend, "get_user", start, err)
	}(time.Now())
	return r.next.GetByUsername(ctx, username)
}

type instrumentedTasks struct {
	backend string
	next    task.TaskRepositoryInterface
	metrics *observability.Metrics
}

// InstrumentTasks records the duration and outcome of every call on repo.
// With nil metrics repo is returned as is.
func InstrumentTasks(backend string, repo task.TaskRepositoryInterface, metrics *observability.Metrics) task.TaskRepositoryInterface {
	if metrics == nil {
		return repo
	}
	return &instrumentedTasks{backend: backend, next: repo, metrics: metrics}
}

func (r *instrumentedTasks) observe(operation string, start time.Time, err error) {
	r.metrics.ObserveStoreOperation(r.backend, operation, start, err)
}

func (r *instrumentedTasks) Insert(ctx context.Context, t *task.Task) (err error) {
	defer func(start time.Time) { r.observe("insert_task", start, err) }(time.Now())
	return r.next.Insert(ctx, t)
}

func (r *instrumentedTasks) GetByID(ctx context.Context, id string) (t *task.Task, err error) {
	defer func(start time.Time) { r.observe("get_task", start, err) }(time.Now())
	return r.next.GetByID(ctx, id)
}

func (r *instrumentedTasks) Replace(ctx context.Context, t *task.Task) (err error) {
	defer func(start time.Time) { r.observe("replace_task", start, err) }(time.Now())
	return r.next.Replace(ctx, t)
}

func (r *instrumentedTasks) DeleteByID(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { r.observe("delete_task", start, err) }(time.Now())
	return r.next.DeleteByID(ctx, id)
}

func (r *instrumentedTasks) List(ctx context.Context) (tasks []*task.Task, err error) {
	defer func(start time.Time) { r.observe("list_tasks", start, err) }(time.Now())
	return r.next.List(ctx)
}

func (r *instrumentedTasks) ListByUsername(ctx context.Context, username string) (tasks []*task.Task, err error) {
	defer func(start time.Time) { r.observe("list_user_tasks", start, err) }(time.Now())
	return r.next.ListByUsername(ctx, username)
}
