package task

import (
	"task_tracker/internal/user"
	"time"
)

// Task is owned by the user named in Username. Username is set at creation
// and never changes; it is the only authorization key.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Username    string    `json:"username"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Actor is the authenticated identity an operation runs as.
type Actor struct {
	Username string
	Role     user.Role
}

func ActorFromUser(u *user.User) Actor {
	return Actor{Username: u.Username, Role: u.Role}
}

func (a Actor) IsAdmin() bool {
	return a.Role == user.RoleAdmin
}

// CanAccess reports whether a may read or modify t.
func (a Actor) CanAccess(t *Task) bool {
	return a.IsAdmin() || t.Username == a.Username
}

type CreateInput struct {
	Title       string
	Description string
	Status      string
}

// UpdateInput holds a partial update. Nil fields keep their current value.
// The owner is deliberately not part of it.
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *string
}
