package quiz

import (
	"errors"
	"fmt"
)

// ValidationError covers missing or malformed input: unknown quiz ids,
// empty submissions, bad payload shapes.
type ValidationError struct {
	Msg      string
	NotFound bool
}

func (e *ValidationError) Error() string { return e.Msg }

// EligibilityError means the caller may not start this attempt right now:
// attempts exhausted, quiz not yet open, no questions, unpaid fee.
type EligibilityError struct {
	Msg string
}

func (e *EligibilityError) Error() string { return e.Msg }

// StateError marks an invalid attempt transition: already completed, or an
// attempt/user/quiz mismatch. The losing side of a concurrent double
// completion observes this.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return e.Msg }

// PersistenceError wraps a storage failure after full rollback; nothing was
// partially written.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// NotificationError is non-fatal: grading committed, only the result email
// failed.
type NotificationError struct {
	Err error
}

func (e *NotificationError) Error() string { return fmt.Sprintf("notification: %v", e.Err) }
func (e *NotificationError) Unwrap() error { return e.Err }

func errNotFound(what, id string) error {
	return &ValidationError{Msg: fmt.Sprintf("%s %q not found", what, id), NotFound: true}
}

func errState(format string, args ...any) error {
	return &StateError{Msg: fmt.Sprintf(format, args...)}
}

func errStorage(op string, err error) error {
	var st *StateError
	if errors.As(err, &st) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
