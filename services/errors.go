package services

import "errors"

var (
	// ErrValidation is returned for malformed or missing input, including
	// states with no configured exam rule.
	ErrValidation = errors.New("invalid input")
	// ErrConflict is returned when existing state blocks an operation,
	// such as a second simultaneous exam session.
	ErrConflict = errors.New("conflicting state")
	// ErrScope is returned when a reference crosses a boundary it should
	// not, such as answering a question outside the paper or reading
	// another student's progress.
	ErrScope = errors.New("out of scope")
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")
)
