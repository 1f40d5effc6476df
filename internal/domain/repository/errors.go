package repository

import "errors"

// Storage errors shared by all store implementations.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateSignal is returned when an insert collides with the
	// (symbol_id, tf, ts) uniqueness constraint. It is a defined outcome of
	// idempotent creation, not a failure.
	ErrDuplicateSignal = errors.New("duplicate signal")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
