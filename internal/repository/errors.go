package repository

import "errors"

var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint (slug, username)
	// is violated.
	ErrDuplicate = errors.New("already exists")
)
