// Package apperr defines the error taxonomy shared by every layer.
// Callers wrap these sentinels with fmt.Errorf("...: %w", ...) and the
// HTTP layer maps them to status codes with errors.Is.
package apperr

import "errors"

var (
	// ErrValidation marks malformed input rejected before any store access.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a missing entity (counterpart profile, presence record).
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized marks an actor mismatch.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnavailable marks a store or lookup failure outside our control.
	ErrUnavailable = errors.New("service unavailable")
)
