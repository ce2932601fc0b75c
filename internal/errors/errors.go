package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Tally error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrIO             ErrorCode = "IO_ERROR"        // 500
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// TallyError represents a structured error with code, status, and details.
type TallyError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *TallyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *TallyError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *TallyError {
	return &TallyError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing resource (e.g. an import source).
func NewNotFound(identifier string) *TallyError {
	return &TallyError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewIO creates a 500 error for a log store that cannot be opened, read or written.
// op names the failing step ("open", "read", "write").
func NewIO(op string, err error) *TallyError {
	msg := op + " failed"
	if err != nil {
		msg = fmt.Sprintf("%s failed: %v", op, err)
	}
	return &TallyError{
		Code:    ErrIO,
		Status:  500,
		Message: msg,
		Details: map[string]any{"op": op},
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *TallyError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &TallyError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if err is (or wraps) a TallyError with the given code.
func Is(err error, code ErrorCode) bool {
	var tErr *TallyError
	if stderrors.As(err, &tErr) {
		return tErr.Code == code
	}
	return false
}

// As returns the TallyError in err's chain, or nil.
func As(err error) *TallyError {
	var tErr *TallyError
	if stderrors.As(err, &tErr) {
		return tErr
	}
	return nil
}
