package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrExternalService is returned when an external service call fails.
	ErrExternalService = errors.New("external service error")
	// ErrToolLoopExceeded is returned when the model keeps requesting tools past the iteration cap.
	ErrToolLoopExceeded = errors.New("tool call limit exceeded")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// ExternalError is a failure of the LLM server, embedding service or vector store.
// It matches both ErrExternalService and the underlying error.
type ExternalError struct {
	Op  string
	Err error
}

func (e *ExternalError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ExternalError) Unwrap() []error {
	return []error{ErrExternalService, e.Err}
}

func externalError(err error, op string) error {
	return &ExternalError{Op: op, Err: err}
}
