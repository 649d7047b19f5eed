// Package apperror defines the request-scoped error kinds shared by the
// service layer and the HTTP handlers. Kinds are sentinel errors matched
// with errors.Is so callers can map them to status codes without string
// comparison.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or missing required input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a missing case, grievance, or user.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied marks an actor role not authorized for the operation.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrConflict marks an optimistic-guard miss; the caller should re-read
	// current state and retry rather than reapply the stale request.
	ErrConflict = errors.New("conflict")
)

// Wrap attaches a semantic kind and operation context to err.
func Wrap(kind error, operation string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", operation, kind)
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

// IsKind reports whether err carries the given kind.
func IsKind(err, kind error) bool {
	return errors.Is(err, kind)
}
