package user

import (
	"context"
	"fmt"
	"task_tracker/internal/apperr"
)

var (
	ErrUserNotFound  = fmt.Errorf("user %w", apperr.ErrNotFound)
	ErrUsernameTaken = fmt.Errorf("%w: username already registered", apperr.ErrConflict)
)

// UserRepositoryInterface is the credential store adapter. Implementations
// return ErrUserNotFound on a miss, ErrUsernameTaken on a duplicate insert
// and wrap apperr.ErrStoreUnavailable for every backend failure.
type UserRepositoryInterface interface {
	// Create persists user and sets user.ID to the store-assigned identifier.
	Create(ctx context.Context, user *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
}
