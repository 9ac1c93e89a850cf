package penalty

import (
	"errors"
	"fmt"
)

// Common penalty computation errors
var (
	// ErrMissingAnchor is returned when neither a delivery date nor a
	// service-completion date is available; the legal delay cannot be
	// anchored and no due date can be computed.
	ErrMissingAnchor = errors.New("no anchor date available (delivery or service completion)")

	// ErrDelayExceedsLegalMax is returned when a contractual delay
	// exceeds the legal ceiling of Article 78-2. The engine rejects such
	// values instead of clamping them.
	ErrDelayExceedsLegalMax = errors.New("contractual delay exceeds legal maximum")

	// ErrNegativeDelay is returned when a contractual delay is negative.
	ErrNegativeDelay = errors.New("contractual delay is negative")

	// ErrNegativeAmount is returned when an invoice or payment amount is
	// negative. Credit notes must be declared via the IsCreditNote flag,
	// not a negative total.
	ErrNegativeAmount = errors.New("amount must not be negative")

	// ErrMissingEvaluationDate is returned when the evaluation date is
	// unset; the engine never reads the system clock itself.
	ErrMissingEvaluationDate = errors.New("evaluation date is required")
)

// ComputationError wraps errors with context about which computation step failed.
type ComputationError struct {
	// Op is the step that failed (e.g., "ResolveAnchor", "AppliedDelay").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ComputationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("penalty: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("penalty: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ComputationError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ComputationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewComputationError creates a ComputationError for the given step.
func NewComputationError(op string, err error, details string) *ComputationError {
	return &ComputationError{Op: op, Err: err, Details: details}
}

// ValidationError reports an invalid input field. It wraps one of the
// sentinel errors above so callers can match with errors.Is.
type ValidationError struct {
	Field   string
	Value   interface{}
	Err     error
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap returns the wrapped sentinel error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, err error, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Err: err, Message: message}
}
