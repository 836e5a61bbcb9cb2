package user

import (
	"fmt"
	"task_tracker/internal/apperr"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole accepts "user" or "admin". An empty value means RoleUser.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "", RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", apperr.ErrValidation, s)
	}
}

// User is immutable once loaded from the store.
type User struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Role           Role   `json:"role"`
	HashedPassword string `json:"-"` // Never expose password hash in JSON
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
