package store

import "errors"

var (
	// ErrNotFound is returned when no entry has the requested id.
	ErrNotFound = errors.New("store: entry not found")

	// ErrMalformedRecord is returned when a stored record lacks its id or
	// created_at, or cannot be decoded at all.
	ErrMalformedRecord = errors.New("store: malformed record")
)
