package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"task_tracker/internal/apperr"
	"task_tracker/internal/user"

	"github.com/gin-gonic/gin"
)

// SessionResolver turns a bearer token into the user behind it.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*user.User, error)
}

// AuthMiddleware validates the bearer token and stores the current user in
// the context. Every authentication failure gets the same 401 response.
func AuthMiddleware(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c)
			return
		}

		u, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, apperr.ErrUnauthenticated) {
				unauthorized(c)
				return
			}
			c.AbortWithStatusJSON(apperr.StatusCode(err), gin.H{"error": apperr.Message(err)})
			return
		}

		user.SetCurrentUser(c, u)
		c.Next()
	}
}

// bearerToken extracts the token from "Bearer <token>". The scheme is
// matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperr.Message(apperr.ErrUnauthenticated)})
}
