package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrAlreadyLinked is returned when a booking is linked to a different
	// project than the one requested. Linking is a one-way transition.
	ErrAlreadyLinked = errors.New("persistence: booking already linked")
	// ErrConstraintViolation is returned for malformed records rejected by
	// the storage layer.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)
