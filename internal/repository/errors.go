package repository

import "errors"

var (
	// ErrNotFound is returned when a queried row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateCorrelation is returned when an insert collides on the
	// booking correlation id unique constraint.
	ErrDuplicateCorrelation = errors.New("correlation id already used")

	// ErrNoDraft is returned when the draft slot is empty or unreadable.
	ErrNoDraft = errors.New("no draft saved")
)
