package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
// It is also returned for resources the caller is not allowed to know exist.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnauthorized indicates missing or invalid credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden indicates the caller may see the resource but not perform the action.
var ErrForbidden = errors.New("forbidden")

// ErrConflict indicates the request contradicts existing state (e.g. an
// overlapping appointment or a still-referenced owner).
var ErrConflict = errors.New("conflict")

// ErrUpstream indicates a failure in an external collaborator (the contact
// management API). Callers may retry with backoff.
var ErrUpstream = errors.New("upstream service error")

// AppError wraps an underlying error with an HTTP status code and a message
// safe to return to clients.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError with the given HTTP status code.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
