package task

import (
	"errors"
	"fmt"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("task not found")
	ErrImport      = errors.New("import rejected")
	ErrPersistence = errors.New("persistence failed")

	// ErrIDsExhausted is returned when no id above the highest stored one
	// fits under MaxID.
	ErrIDsExhausted = errors.New("task ids exhausted")

	// ErrSnapshotUnreadable is returned by a Repository when the stored
	// collection exists but cannot be decoded.
	ErrSnapshotUnreadable = errors.New("stored tasks are unreadable")
)

// ValidationError reports a field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports a task ID that is not in the collection.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %d not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ImportError reports content that could not be accepted as a task collection.
type ImportError struct {
	Reason string
	Err    error
}

func (e *ImportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("import rejected: %s", e.Reason)
	}
	return fmt.Sprintf("import rejected: %s: %v", e.Reason, e.Err)
}

func (e *ImportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrImport}
	}
	return []error{ErrImport, e.Err}
}

// PersistenceError reports a failed read or write against the backing store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s tasks: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
