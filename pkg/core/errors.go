package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrCorrupt    = errors.New("corrupt chart data")
	ErrIO         = errors.New("i/o failure")
	ErrOutOfRange = errors.New("index out of range")
	ErrReadOnly   = errors.New("repository is in read-only mode")
)

// ValidationError reports a field value the model refuses.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// CorruptError reports persisted content that does not have the chart shape.
type CorruptError struct {
	Source string
	Reason string
}

func (e *CorruptError) Error() string {
	if e.Source == "" {
		return "corrupt chart data: " + e.Reason
	}
	return fmt.Sprintf("corrupt chart data in %s: %s", e.Source, e.Reason)
}

func (e *CorruptError) Unwrap() error { return ErrCorrupt }

// Corrupt builds a CorruptError. A validation failure passed as an argument
// keeps its message in the reason.
func Corrupt(source, format string, args ...any) error {
	return &CorruptError{Source: source, Reason: fmt.Sprintf(format, args...)}
}

// IOError wraps an operating system error so that it matches both ErrIO and
// the original error.
func IOError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrIO, err))
}

func outOfRange(what string, index, length int) error {
	return fmt.Errorf("%s index %d (len %d): %w", what, index, length, ErrOutOfRange)
}
