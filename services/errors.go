package services

import "errors"

var (
	// ErrPaymentNotFound is returned for direct lookups of unknown payments.
	// Webhooks for unknown references are a silent no-op instead.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrCourseNotFound is returned when checkout names a missing course
	ErrCourseNotFound = errors.New("course not found")
)

// ValidationError marks bad, user-correctable input. Handlers map it to 4xx.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with the given message
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}
