package user

import (
	"fmt"
	"task_tracker/internal/apperr"

	"github.com/gin-gonic/gin"
)

const CurrentUserKey = "currentUser"

// SetCurrentUser stores the authenticated user for downstream handlers.
func SetCurrentUser(c *gin.Context, u *User) {
	c.Set(CurrentUserKey, u)
}

// CurrentUserFromContext extracts the authenticated user from the Gin context.
func CurrentUserFromContext(c *gin.Context) (*User, error) {
	value, exists := c.Get(CurrentUserKey)
	if !exists {
		return nil, fmt.Errorf("%w: user not found in context", apperr.ErrUnauthenticated)
	}

	u, ok := value.(*User)
	if !ok || u == nil {
		return nil, fmt.Errorf("%w: invalid user type in context", apperr.ErrUnauthenticated)
	}

	return u, nil
}
