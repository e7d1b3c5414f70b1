package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Handoff error code.
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"  // 400
	ErrNotFound        ErrorCode = "NOT_FOUND"        // 404
	ErrNoChannel       ErrorCode = "NO_CHANNEL"       // 501
	ErrChannelFailed   ErrorCode = "CHANNEL_FAILED"   // 502
	ErrClipboardFailed ErrorCode = "CLIPBOARD_FAILED" // 502
	ErrInternal        ErrorCode = "INTERNAL"         // 500
)

// HandoffError represents a structured error with code, status, and details.
// Err holds the underlying channel error, if any.
type HandoffError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *HandoffError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *HandoffError) Unwrap() error {
	return e.Err
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *HandoffError {
	return &HandoffError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing share event.
func NewNotFound(identifier string) *HandoffError {
	return &HandoffError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("share event not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewNoChannel creates a 501 error for when neither the native channel nor any
// fallback can carry the payload.
func NewNoChannel(msg string) *HandoffError {
	return &HandoffError{
		Code:    ErrNoChannel,
		Status:  501,
		Message: msg,
	}
}

// NewChannelFailed creates a 502 error wrapping a native share rejection.
func NewChannelFailed(channel string, err error) *HandoffError {
	msg := channel + " share failed"
	if err != nil {
		msg = fmt.Sprintf("%s share failed: %v", channel, err)
	}
	return &HandoffError{
		Code:    ErrChannelFailed,
		Status:  502,
		Message: msg,
		Details: map[string]any{"channel": channel},
		Err:     err,
	}
}

// NewClipboardFailed creates a 502 error wrapping a clipboard write rejection.
func NewClipboardFailed(err error) *HandoffError {
	return &HandoffError{
		Code:    ErrClipboardFailed,
		Status:  502,
		Message: "failed to copy to clipboard",
		Err:     err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *HandoffError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &HandoffError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		Err:     err,
	}
}

// Is checks if err (or anything it wraps) is a HandoffError with the given code.
func Is(err error, code ErrorCode) bool {
	var hErr *HandoffError
	if stderrors.As(err, &hErr) {
		return hErr.Code == code
	}
	return false
}

// As extracts a HandoffError from err. Plain errors are wrapped as INTERNAL.
func As(err error) *HandoffError {
	if err == nil {
		return nil
	}
	var hErr *HandoffError
	if stderrors.As(err, &hErr) {
		return hErr
	}
	return NewInternal(err)
}
