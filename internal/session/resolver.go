// Package session turns a bearer token into the live user record behind it.
package session

import (
	"context"
	"errors"
	"fmt"
	"task_tracker/internal/apperr"
	"task_tracker/internal/observability"
	"task_tracker/internal/user"

	"github.com/sirupsen/logrus"
)

type TokenVerifier interface {
	Verify(token string) (string, error)
}

type UserFinder interface {
	GetByUsername(ctx context.Context, username string) (*user.User, error)
}

type Resolver struct {
	tokens  TokenVerifier
	users   UserFinder
	metrics *observability.Metrics
}

func NewResolver(tokens TokenVerifier, users UserFinder, metrics *observability.Metrics) *Resolver {
	return &Resolver{
		tokens:  tokens,
		users:   users,
		metrics: metrics,
	}
}

// Resolve verifies token and loads its subject. An invalid token and a subject
// that no longer exists both return apperr.ErrUnauthenticated; the reason is
// only logged. Store failures are returned as they are.
func (r *Resolver) Resolve(ctx context.Context, token string) (*user.User, error) {
	username, err := r.tokens.Verify(token)
	if err != nil {
		logrus.WithError(err).Debug("Rejected bearer token")
		r.metrics.ObserveSessionRejection("invalid_token")
		return nil, apperr.ErrUnauthenticated
	}

	u, err := r.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			logrus.WithField("username", username).Warn("Valid token for unknown user")
			r.metrics.ObserveSessionRejection("unknown_user")
			return nil, apperr.ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}

	return u, nil
}
