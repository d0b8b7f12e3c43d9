// Package apperr defines stable error codes and the typed error carried
// across the analysis engine's boundaries.
package apperr

import (
	"errors"
	"fmt"
)

// Code represents stable error codes for all failure modes
type Code string

const (
	// FileNotFound indicates the analyzed path does not exist
	FileNotFound Code = "FILE_NOT_FOUND"
	// FileTooLarge indicates the file exceeds the configured size limit
	FileTooLarge Code = "FILE_TOO_LARGE"
	// ParseError indicates malformed source that could not be parsed
	ParseError Code = "PARSE_ERROR"
	// Timeout indicates a per-file analysis budget was exceeded
	Timeout Code = "TIMEOUT"
	// CacheBackendUnavailable indicates a cache tier could not be reached
	CacheBackendUnavailable Code = "CACHE_BACKEND_UNAVAILABLE"
	// ManifestMissing indicates the codebase has not been scanned yet
	ManifestMissing Code = "MANIFEST_MISSING"
	// ConfigInvalid indicates the configuration failed validation
	ConfigInvalid Code = "CONFIG_INVALID"
	// Internal indicates an unexpected error
	Internal Code = "INTERNAL_ERROR"
)

// Error is the typed error used across engine boundaries. File-level faults
// are captured into FileAnalysis results and never propagate as Error values;
// only ManifestMissing and ConfigInvalid reach the orchestrator's caller.
type Error struct {
	Code    Code
	Message string
	Details interface{}
	cause   error
}

// New creates a new Error
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a new Error wrapping a cause
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetails attaches structured details to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// CodeOf extracts the Code from an error chain, or Internal if none is found.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return Internal
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
