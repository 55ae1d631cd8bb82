// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
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
	ErrValidation    = errors.New("validation error")
	ErrInvalidID     = errors.New("invalid ID")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrNegativeValue = errors.New("value cannot be negative")
	ErrInvalidFormat = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")

	// Authorization errors
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")

	// Business errors
	ErrInsufficientCredits = errors.New("insufficient hint credits")
	ErrHintUnavailable     = errors.New("hint unavailable")
	ErrNoSourceText        = errors.New("no source text")
	ErrAlreadyScored       = errors.New("attempt already scored")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")

	// Internal errors
	ErrInternal = errors.New("internal fault")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "learner", "quiz", "interaction"
	Op      string // Operation that failed, e.g., "Debit", "Submit"
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

// Learner domain errors
var (
	ErrLearnerNotFound      = NewDomainError("learner", "Find", ErrNotFound, "learner not found")
	ErrLearnerAlreadyExists = NewDomainError("learner", "Register", ErrAlreadyExists, "email already registered")
	ErrInvalidTier          = NewDomainError("learner", "Validate", ErrInvalidInput, "invalid subscription tier")
	ErrNoHintCredits        = NewDomainError("learner", "Debit", ErrInsufficientCredits, "no hint credits remaining")
)

// Content domain errors
var (
	ErrContentNotFound  = NewDomainError("content", "Find", ErrNotFound, "content node not found")
	ErrInvalidNodeType  = NewDomainError("content", "Validate", ErrInvalidInput, "invalid content node type")
	ErrHintNotAvailable = NewDomainError("content", "Hint", ErrHintUnavailable, "hint not available for this content")
	ErrNoTranscript     = NewDomainError("content", "SourceText", ErrNoSourceText, "no transcript or source text for this content")
)

// Interaction domain errors
var (
	ErrInvalidInteractionType = NewDomainError("interaction", "Validate", ErrInvalidInput, "unknown interaction type")
	ErrInteractionRejected    = NewDomainError("interaction", "Validate", ErrValidation, "interaction failed validation")
	ErrQueueUnavailable       = NewDomainError("interaction", "Enqueue", ErrServiceUnavailable, "interaction queue is unavailable")
)

// Quiz domain errors
var (
	ErrAttemptNotFound   = NewDomainError("quiz", "Find", ErrNotFound, "quiz attempt not found")
	ErrAttemptNotOwned   = NewDomainError("quiz", "Authorize", ErrForbidden, "quiz attempt belongs to another learner")
	ErrAttemptScored     = NewDomainError("quiz", "Submit", ErrAlreadyScored, "quiz attempt already scored")
	ErrEmptyQuestionSet  = NewDomainError("quiz", "Generate", ErrInvalidEntity, "oracle returned an empty question set")
	ErrNoAnswersProvided = NewDomainError("quiz", "Submit", ErrInvalidInput, "no answers provided")
)

// Report domain errors
var (
	ErrReportNotFound = NewDomainError("report", "Find", ErrNotFound, "report not found")
)

// External service errors
var (
	ErrEngineUnavailable     = NewDomainError("engine", "Request", ErrServiceUnavailable, "personalization engine is unavailable")
	ErrEngineTimeout         = NewDomainError("engine", "Request", ErrTimeout, "personalization engine request timeout")
	ErrEngineInvalidResponse = NewDomainError("engine", "Parse", ErrInvalidFormat, "invalid response from personalization engine")
	ErrLinkResolverFailed    = NewDomainError("drive", "Resolve", ErrExternalService, "failed to resolve storage link")
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
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
