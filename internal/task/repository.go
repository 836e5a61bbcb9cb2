package task

import (
	"context"
	"fmt"
	"task_tracker/internal/apperr"
)

var ErrTaskNotFound = fmt.Errorf("task %w", apperr.ErrNotFound)

// TaskRepositoryInterface is the task store adapter. It holds no
// authorization logic. Misses are ErrTaskNotFound; backend failures wrap
// apperr.ErrStoreUnavailable.
type TaskRepositoryInterface interface {
	Insert(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, id string) (*Task, error)
	Replace(ctx context.Context, task *Task) error
	DeleteByID(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Task, error)
	ListByUsername(ctx context.Context, username string) ([]*Task, error)
}
