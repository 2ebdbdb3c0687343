package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidTaskStatus is returned when a task status is outside the known set.
	ErrInvalidTaskStatus = errors.New("invalid task status")

	// ErrInvalidTaskPriority is returned when a task priority is outside the known set.
	ErrInvalidTaskPriority = errors.New("invalid task priority")

	// ErrInvalidEventKind is returned when a reminder event carries an unknown kind.
	ErrInvalidEventKind = errors.New("invalid reminder event kind")
)
