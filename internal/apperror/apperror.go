// Package apperror defines the error kinds shared by every layer.
//
// Services return these; handlers translate them into HTTP status codes.
// The sentinel values let callers test the kind with errors.Is, while
// AppError carries the human-readable message sent back to the client.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying failure, never sent to clients
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause, so errors.Is matches either.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// NotFound covers both "absent" and "owned by someone else". Callers must not
// be able to tell the two apart.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func Conflict(resource, message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict: %s", resource, message),
	}
}

// InvalidArgument echoes the rejected value back in the message.
func InvalidArgument(field, value, message string) *AppError {
	return &AppError{
		Err:     ErrInvalidArgument,
		Message: fmt.Sprintf("%s (got %q)", message, value),
		Field:   field,
	}
}

func UpstreamUnavailable(provider string, cause error) *AppError {
	return &AppError{
		Err:     ErrUpstreamUnavailable,
		Message: fmt.Sprintf("%s is unavailable", provider),
		Cause:   cause,
	}
}
