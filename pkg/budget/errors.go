package budget

import (
	"fmt"

	"github.com/mfeltz/budgetboard-go/internal/types"
)

// ErrorKind classifies store errors at the backend boundary.
type ErrorKind = types.ErrorKind

// StoreError is a classified error from a store backend.
type StoreError = types.StoreError

const (
	ErrKindConflict   = types.ErrKindConflict
	ErrKindNotFound   = types.ErrKindNotFound
	ErrKindPermission = types.ErrKindPermission
	ErrKindTransient  = types.ErrKindTransient
	ErrKindInternal   = types.ErrKindInternal
)

var (
	// ErrNotFound is returned when a row does not exist
	ErrNotFound = types.ErrNotFound

	// ErrNoBudgetSelected is returned when an operation needs an active budget
	ErrNoBudgetSelected = types.ErrNoBudgetSelected

	// ErrRealtimeUnsupported is returned when the backend has no change feed
	ErrRealtimeUnsupported = types.ErrRealtimeUnsupported
)

// KindOf returns the classification of err (ErrKindInternal if unclassified).
func KindOf(err error) ErrorKind { return types.KindOf(err) }

// IsConflict checks for a duplicate/unique-constraint class error.
func IsConflict(err error) bool { return types.IsConflict(err) }

// IsNotFound checks for a missing-row class error.
func IsNotFound(err error) bool { return types.IsNotFound(err) }

// IsPermission checks for a permission-denied class error.
func IsPermission(err error) bool { return types.IsPermission(err) }

// IsTransient checks whether the error is worth retrying later.
func IsTransient(err error) bool { return types.IsTransient(err) }

// ValidationError represents a rejected field value on create or update.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}
