package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a store error once, at the store boundary. Callers
// branch on the kind instead of sniffing status codes or message text.
type ErrorKind string

const (
	// ErrKindConflict covers duplicate-key and unique-constraint violations.
	ErrKindConflict ErrorKind = "conflict"

	// ErrKindNotFound means the row does not exist or is filtered out.
	ErrKindNotFound ErrorKind = "not_found"

	// ErrKindPermission means the caller is authenticated but not allowed.
	ErrKindPermission ErrorKind = "permission_denied"

	// ErrKindTransient covers network failures and 5xx-class responses.
	ErrKindTransient ErrorKind = "transient"

	// ErrKindInternal is everything else, including anything ambiguous.
	// Ambiguous errors must never be classified as conflict.
	ErrKindInternal ErrorKind = "internal"
)

// Common errors
var (
	// ErrNotAuthenticated is returned when authentication is required
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNotFound is returned when resource not found
	ErrNotFound = errors.New("resource not found")

	// ErrNoBudgetSelected is returned when an operation needs an active budget
	ErrNoBudgetSelected = errors.New("no budget selected")

	// ErrRealtimeUnsupported is returned when the backend has no change feed
	ErrRealtimeUnsupported = errors.New("store does not support realtime subscriptions")
)

// StoreError is an error returned by a store backend.
type StoreError struct {
	Kind       ErrorKind              `json:"kind"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"statusCode"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped error
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a classified store error.
func NewStoreError(kind ErrorKind, code, message string) *StoreError {
	return &StoreError{Kind: kind, Code: code, Message: message}
}

// WrapStoreError wraps an underlying error with a classification.
func WrapStoreError(err error, kind ErrorKind, message string) *StoreError {
	return &StoreError{Kind: kind, Message: message, Err: err}
}

// KindOf returns the classification of err. Unclassified errors report
// ErrKindInternal so they are surfaced rather than silently tolerated.
func KindOf(err error) ErrorKind {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, ErrNotFound) {
		return ErrKindNotFound
	}
	return ErrKindInternal
}

// IsConflict checks for a duplicate/unique-constraint class error.
func IsConflict(err error) bool {
	return KindOf(err) == ErrKindConflict
}

// IsNotFound checks for a missing-row class error.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsPermission checks for a permission-denied class error.
func IsPermission(err error) bool {
	return KindOf(err) == ErrKindPermission
}

// IsTransient checks whether the error is worth retrying later.
func IsTransient(err error) bool {
	return KindOf(err) == ErrKindTransient
}
