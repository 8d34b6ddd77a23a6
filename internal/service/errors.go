package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// These represent expected conditions that callers check with errors.Is();
// unexpected errors are wrapped in a ServiceError instead.
var (
	// ErrNotOwned indicates a resource is owned by a different user than the
	// one making the request.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrCardNotFound indicates the requested card does not exist.
	ErrCardNotFound = errors.New("card not found")

	// ErrDeckNotFound indicates the requested deck does not exist.
	ErrDeckNotFound = errors.New("deck not found")

	// ErrJobNotFound indicates the requested bulk job does not exist.
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidGrade indicates an unrecognized review grade was submitted.
	ErrInvalidGrade = errors.New("invalid review grade")
)

// ServiceError wraps errors from a service operation with additional context,
// letting consumers differentiate failures with errors.As instead of string
// matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "submit_review")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}
