package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidReviewGrade is returned when a review grade is not one of
	// the known values.
	ErrInvalidReviewGrade = errors.New("invalid review grade")

	// ErrUnauthorized is returned when an operation references an entity
	// the acting user does not own.
	ErrUnauthorized = errors.New("unauthorized operation")
)
