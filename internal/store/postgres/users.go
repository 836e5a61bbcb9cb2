package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"task_tracker/internal/user"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts u and sets its ID. The UNIQUE constraint on username turns
// a duplicate into user.ErrUsernameTaken.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `INSERT INTO users (username, hashed_password, role) VALUES ($1, $2, $3) RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query, u.Username, u.HashedPassword, string(u.Role)).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrUsernameTaken
		}
		return storeError("create user", err)
	}

	u.ID = strconv.FormatInt(id, 10)
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	query := `SELECT id, username, hashed_password, role FROM users WHERE username = $1`

	var (
		id   int64
		role string
		u    user.User
	)
	err := r.db.QueryRowContext(ctx, query, username).Scan(&id, &u.Username, &u.HashedPassword, &role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, storeError("get user", err)
	}

	u.ID = strconv.FormatInt(id, 10)
	u.Role = user.Role(role)
	return &u, nil
}
