// Package apperrors provides the closed error taxonomy shared by the
// distributed lock manager and its node adapters.
package apperrors

import (
	"errors"
	"fmt"
)

// Code represents one kind of failure surfaced to callers.
type Code string

// DLM-level error codes (spec.md §7).
const (
	// CodeNotEnoughMasters: construction could not reach a quorum of nodes.
	CodeNotEnoughMasters Code = "NOT_ENOUGH_MASTERS"
	// CodeCannotObtain: all acquisition passes failed quorum or validity.
	CodeCannotObtain Code = "CANNOT_OBTAIN"
	// CodeReleaseIncomplete: release could not confirm deletion everywhere.
	CodeReleaseIncomplete Code = "RELEASE_INCOMPLETE"
	// CodeInvalidArgument: ttl <= 0 or empty resource name.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
)

// Node-adapter transport codes. These never escape a NodeAdapter on their
// own; the engine folds them into the DLM-level codes above.
const (
	// CodeConnection indicates a transport/network failure talking to a node.
	CodeConnection Code = "NODE_CONNECTION"
	// CodeTimeout indicates a per-node call exceeded its timeout budget.
	CodeTimeout Code = "NODE_TIMEOUT"
	// CodeInternal indicates an unclassified node-adapter failure.
	CodeInternal Code = "NODE_INTERNAL"
)

// String returns the string representation of the code.
func (c Code) String() string {
	return string(c)
}

// Error is a typed error carrying a Code and, optionally, a wrapped cause.
type Error struct {
	code    Code
	message string
	cause   error
}

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates an Error that wraps an existing cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{code: code, message: message, cause: cause}
}

// Wrapf creates an Error that wraps an existing cause with a formatted message.
func Wrapf(code Code, cause error, format string, args ...any) *Error {
	return Wrap(code, fmt.Sprintf(format, args...), cause)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Code returns the error code.
func (e *Error) Code() Code {
	return e.code
}

// Is implements errors.Is by comparing codes. Two *Error values with the
// same code are considered equal regardless of message or cause, so
// callers can match against package-level sentinels built with the same
// code (see dlm.ErrCannotObtain and friends).
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.code == other.code
	}
	return false
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.code == code
	}
	return false
}

// GetCode returns the Code carried by err, or CodeInternal if err is not
// an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return CodeInternal
}
