// Package errors provides the error taxonomy shared by the storefront domain, stores and transports.
package errors

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrValidation marks input rejected before any state changes. See ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is wrapped by every missing-entity error; transports report it as not found.
	ErrNotFound        = errors.New("not found")
	ErrOrderNotFound   = fmt.Errorf("custom order %w", ErrNotFound)
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)

	// ErrStateConflict reports a lifecycle transition whose guard does not hold.
	ErrStateConflict = errors.New("state conflict")
	// ErrOptimisticLock reports a stale version on update; the caller may retry.
	ErrOptimisticLock = errors.New("optimistic lock error: the record has been modified by another transaction")

	// ErrPaymentFailed is a declined charge. ErrGatewayUnavailable wraps it when
	// the gateway could not be reached at all.
	ErrPaymentFailed      = errors.New("payment failed")
	ErrGatewayUnavailable = fmt.Errorf("%w: payment gateway unavailable", ErrPaymentFailed)

	// ErrAccessDenied is returned when the caller is neither the owner nor staff.
	ErrAccessDenied = errors.New("access denied")
	// ErrOwnerRequired is returned to anonymous callers on owner-scoped operations.
	ErrOwnerRequired = errors.New("an authenticated owner is required")

	// Transaction errors are joined with the driver error by the store layer.
	ErrTransactionBegin    = errors.New("failed to begin transaction")
	ErrTransactionCommit   = errors.New("failed to commit transaction")
	ErrTransactionRollback = errors.New("failed to rollback transaction")
)

// ValidationError lists the offending fields with the rule each one broke.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError from field/rule pairs.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// Invalid is a shortcut for a single offending field.
func Invalid(field, rule string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: rule}}
}

func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Conflict reports a transition whose guard does not hold for the current status.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStateConflict, fmt.Sprintf(format, args...))
}
