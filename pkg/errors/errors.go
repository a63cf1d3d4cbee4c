// Package errors defines the typed error used across the archiver so callers
// can tell a fatal page failure from a recoverable per-item one.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork ErrorType = "network"
	ErrorTypeStatus  ErrorType = "status"
	ErrorTypeParsing ErrorType = "parsing"
	ErrorTypeIO      ErrorType = "io"
	ErrorTypeLock    ErrorType = "lock"
	ErrorTypeUnknown ErrorType = "unknown"
)

// Error represents a classified failure. Code carries the HTTP status for
// status errors and is zero otherwise.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error without an underlying cause
func New(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// Wrap creates an Error around err
func Wrap(errorType ErrorType, err error, message string) *Error {
	return &Error{Type: errorType, Message: message, Err: err}
}

// Status creates a status error for an unexpected HTTP response code
func Status(code int, message string) *Error {
	return &Error{Type: ErrorTypeStatus, Message: message, Code: code}
}

// IsType reports whether any error in err's chain is an *Error of the given type
func IsType(err error, errorType ErrorType) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == errorType
	}
	return false
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return 0
}

// IsTransport reports whether err came from talking to the remote API:
// connection failures, non-success responses and undecodable bodies.
func IsTransport(err error) bool {
	return IsType(err, ErrorTypeNetwork) || IsType(err, ErrorTypeStatus) || IsType(err, ErrorTypeParsing)
}
