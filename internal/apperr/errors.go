package apperr

import (
	"errors"
	"net/http"
)

// Error kinds returned by the service layer. Callers match them with errors.Is;
// adapters and services wrap them with extra context.
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrConflict         = errors.New("conflict")
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation error")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// StatusCode maps an error kind to the HTTP status the boundary answers with.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message for err. Internal details of
// unauthenticated and store failures are never exposed.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "Could not validate credentials"
	case errors.Is(err, ErrNotFound):
		return "Task not found or you do not have permission to access it"
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict):
		return err.Error()
	case errors.Is(err, ErrStoreUnavailable):
		return "Storage temporarily unavailable"
	default:
		return "Internal server error"
	}
}
