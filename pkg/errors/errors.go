// Package errors defines the typed error taxonomy used across the bridge
// and its gateway, so that callers can distinguish error classes (protocol,
// handler, timeout, ...) without string matching.
package errors

import "fmt"

// Error type constants, forming the full taxonomy of classes a caller may
// need to distinguish.
const (
	ErrProtocol          = "protocol"
	ErrHandler           = "handler"
	ErrTimeout           = "timeout"
	ErrRestrictedContext = "restricted_context"
	ErrUnknownCommand    = "unknown_command"
	ErrInvalidArgument   = "invalid_argument"
	ErrInternal          = "internal"
)

// Error is a typed, wrappable error carrying a taxonomy Type, a
// human-readable Message, and an optional underlying Cause.
type Error struct {
	Type    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError constructs an Error of the given type.
func NewError(errType, message string, cause error) *Error {
	return &Error{Type: errType, Message: message, Cause: cause}
}

// NewProtocolError builds an ErrProtocol error.
func NewProtocolError(message string, cause error) *Error {
	return NewError(ErrProtocol, message, cause)
}

// NewHandlerError builds an ErrHandler error.
func NewHandlerError(message string, cause error) *Error {
	return NewError(ErrHandler, message, cause)
}

// NewTimeoutError builds an ErrTimeout error.
func NewTimeoutError(message string, cause error) *Error {
	return NewError(ErrTimeout, message, cause)
}

// NewRestrictedContextError builds an ErrRestrictedContext error.
func NewRestrictedContextError(message string, cause error) *Error {
	return NewError(ErrRestrictedContext, message, cause)
}

// NewUnknownCommandError builds an ErrUnknownCommand error.
func NewUnknownCommandError(message string, cause error) *Error {
	return NewError(ErrUnknownCommand, message, cause)
}

// NewInvalidArgumentError builds an ErrInvalidArgument error.
func NewInvalidArgumentError(message string, cause error) *Error {
	return NewError(ErrInvalidArgument, message, cause)
}

// NewInternalError builds an ErrInternal error.
func NewInternalError(message string, cause error) *Error {
	return NewError(ErrInternal, message, cause)
}
