package backend

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-lawfirm-console/internal/errors"
)

// Error is a non-2xx answer from the backend.
type Error struct {
	StatusCode int
	Message    string // the backend's "message" field, if it sent one
	Path       string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend %s: %d %s", e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend %s: %d %s", e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap lets callers test 401/403 answers with errors.Is(err, errors.ErrUnauthorized).
func (e *Error) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return errors.ErrUnauthorized
	}
	return nil
}

// StatusCode returns the HTTP status carried by err, or 0 when the backend never answered.
func StatusCode(err error) int {
	var be *Error
	if errors.As(err, &be) {
		return be.StatusCode
	}
	return 0
}

// MessageOf returns the backend-supplied message carried by err, if any.
func MessageOf(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Message
	}
	return ""
}

// IsAuthorization reports a 401 or 403 answer: the only signal that a token is dead.
func IsAuthorization(err error) bool {
	return errors.Is(err, errors.ErrUnauthorized)
}

// IsUnreachable reports a request that never got an HTTP answer.
func IsUnreachable(err error) bool {
	return errors.Is(err, errors.ErrUnreachable)
}
