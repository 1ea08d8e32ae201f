// Package errors provides structured error types for deps-lsp.
//
// Error codes follow the failure taxonomy of the server: parse failures,
// registry lookups, lock-file problems, oversize documents, and bad
// configuration. Codes let handlers decide between "convert to a state
// flag", "emit one diagnostic", and "log and continue" without matching on
// error strings.
//
// Usage:
//
//	err := errors.New(errors.ErrCodeParse, "invalid manifest: %s", path)
//	if errors.Is(err, errors.ErrCodeParse) {
//	    // report as diagnostic, keep document stored
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the server's failure taxonomy.
const (
	// Manifest and lock-file parsing
	ErrCodeParse     Code = "PARSE_ERROR"
	ErrCodeLockParse Code = "LOCK_PARSE_ERROR"

	// Registry lookups
	ErrCodeRegistryNotFound Code = "REGISTRY_NOT_FOUND"
	ErrCodeRegistryUnknown  Code = "REGISTRY_UNKNOWN_PACKAGE"
	ErrCodeTransport        Code = "REGISTRY_TRANSPORT"
	ErrCodeTimeout          Code = "REGISTRY_TIMEOUT"

	// Documents
	ErrCodeOversizeFile Code = "OVERSIZE_FILE"
	ErrCodeNoEcosystem  Code = "NO_ECOSYSTEM"

	// Input and configuration
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeConfig         Code = "CONFIG_ERROR"

	// Internal
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain to the first *Error and compares that
// error's code; codes of *Error values deeper in the chain are not
// checked.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
