package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound reports a logical absence (unknown id, other session's parcel, expired task).
	ErrNotFound = errors.New("not found")
	// ErrUpstreamRate reports an unreachable or unparseable exchange rate source.
	ErrUpstreamRate = errors.New("exchange rate source unavailable")
	// ErrPersistence reports a storage adapter failure.
	ErrPersistence = errors.New("persistence failure")
	// ErrDispatch reports a task that could not be enqueued.
	ErrDispatch = errors.New("task dispatch failed")
)

// ValidationError describes a broken invariant on a single field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
