package auth

import (
	"errors"
	"fmt"
	"task_tracker/internal/clock"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = 15 * time.Minute

// ErrInvalidToken is the only failure Verify reports. Malformed structure,
// bad signature, expiry and a missing subject are deliberately not told apart.
var ErrInvalidToken = errors.New("invalid token")

// TokenService issues and verifies HMAC-signed JWT bearer tokens whose
// subject is a username.
type TokenService struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	clock  clock.Clock
}

func NewTokenService(secret, algorithm string, ttl time.Duration, clk clock.Clock) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token signing secret is required")
	}

	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}

	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if clk == nil {
		clk = clock.Real()
	}

	return &TokenService{
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
		clock:  clk,
	}, nil
}

func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue creates a token for subject that expires after the configured TTL.
func (s *TokenService) Issue(subject string) (string, error) {
	return s.IssueWithTTL(subject, s.ttl)
}

// IssueWithTTL creates a token with an explicit lifetime. A zero or negative
// ttl yields a token that is already expired.
func (s *TokenService) IssueWithTTL(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is required")
	}

	now := s.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(s.method, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature and expiry and returns the subject.
func (s *TokenService) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
