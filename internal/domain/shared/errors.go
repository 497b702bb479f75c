// Package shared contains the error taxonomy used across all domain packages.
// This package has zero external dependencies.
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
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState = errors.New("invalid state")
	ErrLimitReached = errors.New("limit reached")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "progress", "notification", "store"
	Op      string // Operation that failed, e.g., "AddEvent", "Save"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message, safe to show to the student
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

// Progress domain errors
var (
	ErrStateNotFound       = NewDomainError("progress", "Load", ErrNotFound, "progress not found")
	ErrInvalidDocument     = NewDomainError("progress", "Decode", ErrInvalidFormat, "invalid progress document")
	ErrMissingUsername     = NewDomainError("progress", "Decode", ErrEmptyValue, "progress document has no username")
	ErrUnknownEvent        = NewDomainError("progress", "Apply", ErrInvalidInput, "unknown event")
	ErrEmptyEventTitle     = NewDomainError("progress", "AddEvent", ErrValidation, "Please provide a title and time.")
	ErrEmptyEventTime      = NewDomainError("progress", "AddEvent", ErrValidation, "Please provide a title and time.")
	ErrInvalidEventDate    = NewDomainError("progress", "AddEvent", ErrValidation, "Please provide a valid date (YYYY-MM-DD) and time (HH:MM).")
	ErrEmptyNoteTopic      = NewDomainError("progress", "AddNote", ErrValidation, "Please select a topic and write a note.")
	ErrEmptyNoteContent    = NewDomainError("progress", "AddNote", ErrValidation, "Please select a topic and write a note.")
	ErrEmptyQuizSubmission = NewDomainError("progress", "SubmitQuiz", ErrValidation, "Please answer at least one question.")
	ErrEmptyTopic          = NewDomainError("progress", "Apply", ErrValidation, "Please choose a topic.")
	ErrFinalAttemptsUsed   = NewDomainError("progress", "SubmitFinal", ErrLimitReached, "No final test attempts left.")
)

// Store errors
var (
	ErrStoreUnavailable = NewDomainError("store", "Connect", ErrServiceUnavailable, "progress store is unavailable")
	ErrCacheMiss        = NewDomainError("cache", "Get", ErrNotFound, "cache miss")
)

// Validation wraps a field-level failure into a validation error with a user message.
func Validation(domain, op, message string, err error) *DomainError {
	return WrapError(domain, op, ErrValidation, message, err)
}

// UserMessage extracts the student-facing message from err, if it is a validation error.
func UserMessage(err error) (string, bool) {
	var de *DomainError
	if !errors.As(err, &de) || !IsValidation(de) {
		return "", false
	}
	return de.Message, true
}

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrLimitReached)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrExternalService)
}
