package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidFormat is returned when data is not in the expected format.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrDuplicateField is returned when a Field Map contains the same key twice.
	ErrDuplicateField = errors.New("duplicate field")

	// ErrEmptyFieldKey is returned when a Field Map entry has no key.
	ErrEmptyFieldKey = errors.New("field key cannot be empty")

	// ErrInvalidJobStatus is returned when a job status is not recognised.
	ErrInvalidJobStatus = errors.New("invalid job status")

	// ErrImageAlreadySet is returned when a panel image is assigned twice.
	ErrImageAlreadySet = errors.New("panel image already set")
)
