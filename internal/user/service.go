package user

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"task_tracker/internal/apperr"
	"task_tracker/internal/observability"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 6
	maxPasswordBytes  = 72 // bcrypt input limit
)

// usernames double as store keys, so they are limited to path-safe characters
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

var ErrInvalidCredentials = fmt.Errorf("%w: incorrect username or password", apperr.ErrUnauthenticated)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
	VerifyAgainstDummy(password string)
}

type TokenIssuer interface {
	Issue(subject string) (string, error)
	TTL() time.Duration
}

type TokenPair struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"` // seconds
}

type UserServiceInterface interface {
	Register(ctx context.Context, username, password string, role Role) (*TokenPair, error)
	Login(ctx context.Context, username, password string) (*TokenPair, error)
	EnsureUser(ctx context.Context, username, password string, role Role) (*User, error)
}

type ServiceOptions struct {
	// AllowAdminSignup lets Register create admin accounts.
	AllowAdminSignup bool
	Metrics          *observability.Metrics
}

type UserService struct {
	repo   UserRepositoryInterface
	hasher PasswordHasher
	tokens TokenIssuer
	opts   ServiceOptions
}

func NewUserService(repo UserRepositoryInterface, hasher PasswordHasher, tokens TokenIssuer, opts ServiceOptions) *UserService {
	return &UserService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		opts:   opts,
	}
}

// Register creates a user with a hashed password and returns an access token
// for it. A taken username is ErrUsernameTaken and leaves the existing record
// untouched.
func (s *UserService) Register(ctx context.Context, username, password string, role Role) (tokens *TokenPair, err error) {
	defer func() { s.opts.Metrics.ObserveAuthAttempt("register", err) }()

	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	role, err = ParseRole(string(role))
	if err != nil {
		return nil, err
	}
	if role == RoleAdmin && !s.opts.AllowAdminSignup {
		return nil, fmt.Errorf("%w: admin accounts cannot be self-registered", apperr.ErrValidation)
	}

	user, err := s.createUser(ctx, username, password, role)
	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

// Login returns a token when password matches. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, username, password string) (tokens *TokenPair, err error) {
	defer func() { s.opts.Metrics.ObserveAuthAttempt("login", err) }()

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.hasher.VerifyAgainstDummy(password)
			logrus.WithField("username", username).Info("Login for unknown user")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.HashedPassword) {
		logrus.WithField("username", username).Info("Login with wrong password")
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// EnsureUser returns the existing user with username, creating it when absent.
// An existing user keeps its password and role.
func (s *UserService) EnsureUser(ctx context.Context, username, password string, role Role) (*User, error) {
	existing, err := s.repo.GetByUsername(ctx, username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, username, password, role)
	if errors.Is(err, apperr.ErrConflict) {
		// created concurrently by another instance
		return s.repo.GetByUsername(ctx, username)
	}
	return user, err
}

func (s *UserService) createUser(ctx context.Context, username, password string, role Role) (*User, error) {
	hashedPassword, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		Username:       username,
		Role:           role,
		HashedPassword: hashedPassword,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
	}).Info("User created successfully")

	return user, nil
}

func (s *UserService) issue(user *User) (*TokenPair, error) {
	accessToken, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
	}, nil
}

func validateCredentials(username, password string) error {
	switch {
	case username != strings.TrimSpace(username):
		return fmt.Errorf("%w: username must not start or end with whitespace", apperr.ErrValidation)
	case len(username) < minUsernameLength || len(username) > maxUsernameLength:
		return fmt.Errorf("%w: username must be between %d and %d characters", apperr.ErrValidation, minUsernameLength, maxUsernameLength)
	case !usernamePattern.MatchString(username) || strings.Trim(username, ".") == "":
		return fmt.Errorf("%w: username may only contain letters, digits, '_', '.' and '-'", apperr.ErrValidation)
	case len(password) < minPasswordLength:
		return fmt.Errorf("%w: password must be at least %d characters", apperr.ErrValidation, minPasswordLength)
	case len(password) > maxPasswordBytes:
		return fmt.Errorf("%w: password must be at most %d bytes", apperr.ErrValidation, maxPasswordBytes)
	}
	return nil
}
