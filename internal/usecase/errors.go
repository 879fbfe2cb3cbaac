package usecase

import (
	"fmt"
	"net/http"

	crerr "github.com/cockroachdb/errors"
)

var (
	ErrInvalidInput          = crerr.New("invalid input")
	ErrNotFound              = crerr.New("resource not found")
	ErrUnauthorized          = crerr.New("unauthorized")
	ErrDependencyUnavailable = crerr.New("dependency unavailable")
	ErrConflict              = crerr.New("conflict")
)

// Sync error taxonomy. Failures are marked with one of these so callers can
// classify them with errors.Is without losing the original cause.
var (
	ErrTransientHTTP       = crerr.New("transient http failure")
	ErrRateLimited         = crerr.New("rate limited")
	ErrValidation          = crerr.New("validation failed")
	ErrForeignKeyViolation = crerr.New("foreign key violation")
	ErrPersistence         = crerr.New("persistence failure")
)

// HTTPError is a non-2xx provider response.
type HTTPError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: http %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Endpoint, e.Status, e.Body)
}

// NewHTTPError builds an HTTPError marked with its taxonomy class.
func NewHTTPError(endpoint string, status int, body string) error {
	err := &HTTPError{Endpoint: endpoint, Status: status, Body: body}
	switch {
	case status == http.StatusTooManyRequests:
		return crerr.Mark(err, ErrRateLimited)
	case status >= 500:
		return crerr.Mark(err, ErrTransientHTTP)
	default:
		return err
	}
}

// MarkTransient tags a network level failure as retryable.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return crerr.Mark(err, ErrTransientHTTP)
}

// MarkValidation tags a payload that could not be normalized.
func MarkValidation(err error) error {
	if err == nil {
		return nil
	}
	return crerr.Mark(err, ErrValidation)
}

// IsRetryable reports whether the provider call may succeed on another attempt.
func IsRetryable(err error) bool {
	return crerr.Is(err, ErrTransientHTTP) || crerr.Is(err, ErrRateLimited)
}

// HTTPStatus extracts the provider status code, or 0 when err is not an HTTPError.
func HTTPStatus(err error) int {
	var httpErr *HTTPError
	if crerr.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}

// failureReason maps an error onto the reason code used in logs and counters.
func failureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case crerr.Is(err, ErrForeignKeyViolation):
		return "foreign_key_violation"
	case crerr.Is(err, ErrValidation):
		return "validation"
	case crerr.Is(err, ErrRateLimited):
		return "rate_limited"
	case crerr.Is(err, ErrTransientHTTP):
		return "transient_http"
	case crerr.Is(err, ErrPersistence):
		return "persistence"
	default:
		return "unknown"
	}
}
