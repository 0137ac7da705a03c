// Package errors holds the sentinels repos return and handlers map to
// HTTP statuses. Wrap them with fmt.Errorf("...: %w", err).
package errors

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict marks a write that lost a guarded transition, such as a
	// challenge already completed by another session.
	ErrConflict = errors.New("conflict")
	// ErrUnavailable marks a collaborator that could not be reached.
	ErrUnavailable = errors.New("unavailable")
)
