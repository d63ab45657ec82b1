package core

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors. Match them with errors.Is.
var (
	// ErrValidation marks malformed note fields. The concrete error is *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an unknown note id.
	ErrNotFound = errors.New("note not found")
	// ErrInvalidState marks an operation that is illegal for the note's status or schedule.
	ErrInvalidState = errors.New("invalid note state")
	// ErrInvalidInput marks nonsensical numeric input given to the calculation engine.
	ErrInvalidInput = errors.New("invalid calculation input")
	// ErrPersistence marks a failed durable read or write. The concrete error is *PersistenceError.
	ErrPersistence = errors.New("persistence failed")
	// ErrIntegrity marks stored data that breaks the store invariants (duplicate ids, dangling predecessors).
	ErrIntegrity = errors.New("data integrity violation")
	// ErrReadOnly is returned by mutations on a read-only store.
	ErrReadOnly = errors.New("store is in read-only mode")
)

// Violation is a single broken field constraint.
type Violation struct {
	Field   string
	Message string
}

func (v Violation) String() string {
	return v.Field + " " + v.Message
}

// ValidationError lists every violated constraint of a note, not just the first.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Has reports whether the given field has a violation.
func (e *ValidationError) Has(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

// PersistenceError wraps a failure of the storage collaborator.
// The in-memory store stays consistent when it is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrPersistence) match.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

func invalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
