package repository

import "errors"

// Common repository errors
var (
	// ErrTaskNotFound is returned when no task matches the id and owner
	ErrTaskNotFound = errors.New("task not found")

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")
)
