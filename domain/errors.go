package domain

import "errors"

var (
	// ErrUnauthenticated is returned by mutating store operations when no
	// owner is present.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrNotFoundOrDenied is returned when a record does not exist or is
	// owned by another user. The two cases are deliberately not
	// distinguished so that non-owners cannot probe for existence.
	ErrNotFoundOrDenied = errors.New("record not found or access denied")

	// ErrSelfParent is returned when a folder move targets the folder itself.
	ErrSelfParent = errors.New("cannot move folder into itself")

	// ErrCyclicMove is returned when a folder move targets one of the
	// folder's own descendants.
	ErrCyclicMove = errors.New("cannot move folder into its own descendant")
)
