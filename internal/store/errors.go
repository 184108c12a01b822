package store

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a record with the same key already exists.
	ErrConflict = errors.New("already exists")

	// ErrCorrupt indicates a stored column could not be decoded.
	ErrCorrupt = errors.New("corrupt record")
)
