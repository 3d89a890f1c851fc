package domain

import "errors"

var (
	// ErrNotFound is returned when an operation requires a project (or
	// its settings/task) to exist and it does not. Read-side traversal of
	// a missing id yields empty results instead.
	ErrNotFound = errors.New("not found")

	// ErrCycle is returned when a re-parenting request would make a
	// project its own ancestor. Rejected before any write.
	ErrCycle = errors.New("parent change would create a cycle")

	// ErrForbidden is surfaced by handlers when the access predicate
	// denies; the predicate itself answers a boolean.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalid marks a rejected input (bad enum value, blank required
	// field). Handlers answer it with a 400; anything unrecognized is an
	// internal failure and answers 500.
	ErrInvalid = errors.New("invalid input")
)
