// Package errors provides error handling for vigia.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - PII-safe error formatting
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrNotFound) {
//	    // handle not found
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Sentinel errors forming the vigia error taxonomy.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrValidation indicates a bad job spec or malformed input.
	// Recoverable; handled inline at the call site that issued the mutation.
	ErrValidation = New("validation failed")

	// ErrNotFound indicates a stale id or missing resource.
	// Recoverable; callers refresh their listing.
	ErrNotFound = New("not found")

	// ErrUnauthorized indicates an expired or invalid token.
	// Not recovered locally; the session guard tears down and the operator
	// re-authenticates. Always wins over local error handling.
	ErrUnauthorized = New("unauthorized")

	// ErrAlreadyRunning indicates the execution lock is already held.
	ErrAlreadyRunning = New("a search is already running")

	// ErrBusy indicates a protected operation was attempted while the
	// execution lock is held. The operation is discarded, never queued.
	ErrBusy = New("busy: search in progress")

	// ErrNetwork indicates a transport failure talking to the backend.
	// Surfaced as-is, never silently swallowed, never retried automatically.
	ErrNetwork = New("network failure")
)

// IsValidationError checks if an error is or wraps ErrValidation
func IsValidationError(err error) bool {
	return err != nil && Is(err, ErrValidation)
}

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsUnauthorizedError checks if an error is or wraps ErrUnauthorized
func IsUnauthorizedError(err error) bool {
	return err != nil && Is(err, ErrUnauthorized)
}

// IsBusyError checks if an error is or wraps ErrBusy or ErrAlreadyRunning
func IsBusyError(err error) bool {
	return err != nil && IsAny(err, ErrBusy, ErrAlreadyRunning)
}

// IsNetworkError checks if an error is or wraps ErrNetwork
func IsNetworkError(err error) bool {
	return err != nil && Is(err, ErrNetwork)
}

// NewValidationError creates a validation error with a formatted message
func NewValidationError(format string, args ...interface{}) error {
	return Wrap(ErrValidation, Newf(format, args...).Error())
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// WrapNetwork wraps a transport error as a network error with context
func WrapNetwork(err error, context string) error {
	return Wrap(Wrap(ErrNetwork, err.Error()), context)
}
