package sessions

import (
	"errors"
	"fmt"
)

var (
	ErrPersistence    = errors.New("session persistence failed")
	ErrInvalidState   = errors.New("operation not valid in current session state")
	ErrInvalidSession = errors.New("token and user are required")
)

// PersistenceError reports a durable-storage failure for one key. It matches
// ErrPersistence as well as the underlying storage error under errors.Is.
type PersistenceError struct {
	Op  string // "read", "write", "remove"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrPersistence, e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}
