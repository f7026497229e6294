// Package errors provides structured error types for the rollback CLI.
// It implements error classification, wrapping, and process exit code mapping.
package errors

import (
	"errors"
	"fmt"
)

// Kind represents the category of an error.
type Kind uint8

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown Kind = iota
	// KindConfig indicates missing or invalid configuration.
	KindConfig
	// KindRegistry indicates a registry API error (transport failure or
	// non-success response from list/rollback/patch).
	KindRegistry
	// KindNotEligible indicates the target version is absent from the
	// eligible set.
	KindNotEligible
	// KindValidation indicates invalid user input.
	KindValidation
	// KindAuth indicates a credential resolution error.
	KindAuth
	// KindTimeout indicates a request deadline was exceeded.
	KindTimeout
	// KindCanceled indicates the operation was canceled.
	KindCanceled
	// KindInternal indicates an internal error.
	KindInternal
)

// Process exit codes. Configuration problems are distinguished so CI callers
// can tell "fix your environment" from "the rollback failed".
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitConfig  = 2
)

// String returns a human-readable string for the error kind.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "configuration"
	case KindRegistry:
		return "registry"
	case KindNotEligible:
		return "not_eligible"
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindTimeout:
		return "timeout"
	case KindCanceled:
		return "canceled"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the standard error type for the rollback CLI.
type Error struct {
	// Kind is the category of the error.
	Kind Kind
	// Op is the operation being performed when the error occurred.
	Op string
	// Message is a human-readable error message.
	Message string
	// Err is the underlying error.
	Err error
	// Details contains additional context about the error.
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches this error.
// For *Error types, it checks if both the Kind and Op match.
// For sentinel errors (errors without Op), only Kind is compared.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op == "" {
		return e.Kind == t.Kind
	}
	return e.Kind == t.Kind && e.Op == t.Op
}

// WithDetail adds a single detail to the error and returns the modified error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
	}
}

// Newf creates a new Error with the given kind and formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, kind Kind, op string, message string) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, kind Kind, op string, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// GetKind returns the Kind of an error.
// If the error is not an *Error, it returns KindUnknown.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind checks if an error is of a specific kind.
func IsKind(err error, kind Kind) bool {
	return GetKind(err) == kind
}

// ExitCode maps an error to a process exit code. Nil maps to ExitOK,
// configuration errors to ExitConfig, everything else to ExitFailure.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if IsKind(err, KindConfig) {
		return ExitConfig
	}
	return ExitFailure
}

// Common error constructors for frequently used error types.

// Config creates a configuration error.
func Config(op, message string) *Error {
	return &Error{
		Kind:    KindConfig,
		Op:      op,
		Message: message,
	}
}

// ConfigWrap wraps an error as a configuration error.
func ConfigWrap(err error, op, message string) *Error {
	return Wrap(err, KindConfig, op, message)
}

// Registry creates a registry API error.
func Registry(op, message string) *Error {
	return &Error{
		Kind:    KindRegistry,
		Op:      op,
		Message: message,
	}
}

// RegistryWrap wraps an error as a registry API error.
func RegistryWrap(err error, op, message string) *Error {
	return Wrap(err, KindRegistry, op, message)
}

// NotEligible creates a not-eligible error.
func NotEligible(op, message string) *Error {
	return &Error{
		Kind:    KindNotEligible,
		Op:      op,
		Message: message,
	}
}

// Validation creates a validation error.
func Validation(op, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Op:      op,
		Message: message,
	}
}

// Auth creates a credential resolution error.
func Auth(op, message string) *Error {
	return &Error{
		Kind:    KindAuth,
		Op:      op,
		Message: message,
	}
}

// AuthWrap wraps an error as a credential resolution error.
func AuthWrap(err error, op, message string) *Error {
	return Wrap(err, KindAuth, op, message)
}

// Timeout creates a timeout error.
func Timeout(op, message string) *Error {
	return &Error{
		Kind:    KindTimeout,
		Op:      op,
		Message: message,
	}
}

// TimeoutWrap wraps an error as a timeout error.
func TimeoutWrap(err error, op, message string) *Error {
	return Wrap(err, KindTimeout, op, message)
}

// Internal creates an internal error.
func Internal(op, message string) *Error {
	return &Error{
		Kind:    KindInternal,
		Op:      op,
		Message: message,
	}
}

// InternalWrap wraps an error as an internal error.
func InternalWrap(err error, op, message string) *Error {
	return Wrap(err, KindInternal, op, message)
}
