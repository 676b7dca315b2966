package errors

import (
	"errors"
	"fmt"
)

// Common error types for the console
var (
	// Credential errors
	ErrNoCredentials      = errors.New("no stored credentials")
	ErrPartialCredentials = errors.New("partial credentials")
	ErrStorageUnavailable = errors.New("token storage unavailable")
	ErrSealedStore        = errors.New("token store could not be unsealed")

	// Backend errors
	ErrUnreachable       = errors.New("cannot reach server")
	ErrMalformedResponse = errors.New("malformed response")
	ErrUnauthorized      = errors.New("unauthorized")

	// Identity errors
	ErrMissingIdentity = errors.New("missing identity")
	ErrInvalidRole     = errors.New("invalid role")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// New returns an error that formats as the given text
func New(text string) error {
	return errors.New(text)
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
