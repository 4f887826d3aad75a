// Package shared contains common domain types, errors and events
// that are used across all domain packages.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrValueOutOfRange = errors.New("value out of range")

	// State errors
	ErrInvalidState = errors.New("invalid state")
	ErrForbidden    = errors.New("forbidden")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// External service errors
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "progress", "curriculum", "learner"
	Op      string // Operation that failed, e.g., "CompleteLesson"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Curriculum domain errors
var (
	ErrUnknownLevel  = NewDomainError("curriculum", "ParseLevel", ErrInvalidInput, "unknown level")
	ErrUnknownLesson = NewDomainError("curriculum", "Lesson", ErrNotFound, "lesson not found in catalog")
	ErrEmptyLevel    = NewDomainError("curriculum", "Validate", ErrInvalidInput, "level has no lessons")
)

// Progress domain errors
var (
	ErrProgressNotFound  = NewDomainError("progress", "Find", ErrNotFound, "progress not found")
	ErrInvalidTotal      = NewDomainError("progress", "Score", ErrValueOutOfRange, "total must be greater than zero")
	ErrInvalidScore      = NewDomainError("progress", "Score", ErrValueOutOfRange, "correct answers out of range")
	ErrLevelLocked       = NewDomainError("progress", "CompleteLesson", ErrForbidden, "level is locked")
	ErrLessonLocked      = NewDomainError("progress", "CompleteLesson", ErrForbidden, "lesson is locked")
	ErrLevelNotComplete  = NewDomainError("progress", "RecordCertificate", ErrInvalidState, "level is not complete")
	ErrCertificateExists = NewDomainError("progress", "RecordCertificate", ErrAlreadyExists, "certificate already recorded")
	ErrVersionConflict   = NewDomainError("progress", "Save", ErrConcurrentModification, "progress was modified concurrently")
)

// Learner domain errors
var (
	ErrLearnerNotFound       = NewDomainError("learner", "Find", ErrNotFound, "learner not found")
	ErrLearnerAlreadyExists  = NewDomainError("learner", "Create", ErrAlreadyExists, "learner already exists")
	ErrInvalidLearnerID      = NewDomainError("learner", "Validate", ErrInvalidID, "invalid learner ID")
	ErrPlacementAlreadyTaken = NewDomainError("learner", "Place", ErrAlreadyExists, "placement test already taken")
	ErrPreviousLevelNoCert   = NewDomainError("learner", "UnlockLevel", ErrInvalidState, "previous level has no certificate")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsForbidden checks if the error denies access to a locked resource.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsConflict checks if the error is a state conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrConcurrentModification)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
