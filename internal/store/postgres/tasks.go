package postgres

import (
	"context"
	"database/sql"
	"errors"
	"task_tracker/internal/task"
)

const taskColumns = `id, title, description, status, username, created_at, updated_at`

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Insert(ctx context.Context, t *task.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.Title, t.Description, t.Status, t.Username, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return storeError("insert task", err)
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	t, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, task.ErrTaskNotFound
		}
		return nil, storeError("get task", err)
	}
	return t, nil
}

// Replace overwrites every mutable column of an existing row. The owner
// column is never written after insert.
func (r *TaskRepository) Replace(ctx context.Context, t *task.Task) error {
	return WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM tasks WHERE id = $1 FOR UPDATE`, t.ID).Scan(&exists)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return task.ErrTaskNotFound
			}
			return storeError("lock task", err)
		}

		query := `UPDATE tasks SET title = $2, description = $3, status = $4, updated_at = $5 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, query, t.ID, t.Title, t.Description, t.Status, t.UpdatedAt); err != nil {
			return storeError("update task", err)
		}
		return nil
	})
}

func (r *TaskRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return storeError("delete task", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return storeError("delete task", err)
	}
	if n == 0 {
		return task.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) List(ctx context.Context) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at, id`
	return r.query(ctx, query)
}

func (r *TaskRepository) ListByUsername(ctx context.Context, username string) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE username = $1 ORDER BY created_at, id`
	return r.query(ctx, query, username)
}

func (r *TaskRepository) query(ctx context.Context, query string, args ...any) ([]*task.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError("list tasks", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, storeError("scan task", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list tasks", err)
	}

	return tasks, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*task.Task, error) {
	var t task.Task
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Username, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}
