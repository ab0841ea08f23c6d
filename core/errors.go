package core

import (
	"errors"
	"fmt"
)

// ErrUnsupportedOperation is returned by accessors that do not apply to a
// view variant. It marks a programming error in the caller.
var ErrUnsupportedOperation = errors.New("unsupported operation")

// NameResolutionError indicates a statement target could not be resolved
// to a qualified name.
type NameResolutionError struct {
	Message string
}

func (e *NameResolutionError) Error() string { return e.Message }

// AccessDeniedError indicates a capability check refused the request.
type AccessDeniedError struct {
	Message string
}

func (e *AccessDeniedError) Error() string { return "access denied: " + e.Message }

// NotFoundError indicates a catalog object does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// AlreadyExistsError indicates a catalog object is already defined.
type AlreadyExistsError struct {
	Message string
}

func (e *AlreadyExistsError) Error() string { return e.Message }

// ErrNameResolution creates a NameResolutionError with a formatted message.
func ErrNameResolution(format string, args ...interface{}) *NameResolutionError {
	return &NameResolutionError{Message: fmt.Sprintf(format, args...)}
}

// ErrAccessDenied creates an AccessDeniedError with a formatted message.
func ErrAccessDenied(format string, args ...interface{}) *AccessDeniedError {
	return &AccessDeniedError{Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrAlreadyExists creates an AlreadyExistsError with a formatted message.
func ErrAlreadyExists(format string, args ...interface{}) *AlreadyExistsError {
	return &AlreadyExistsError{Message: fmt.Sprintf(format, args...)}
}

func unsupported(operation string) error {
	return fmt.Errorf("'%s' operation is unsupported on materialized view: %w", operation, ErrUnsupportedOperation)
}
