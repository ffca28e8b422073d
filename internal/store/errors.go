package store

import "fmt"

// PersistenceError is any failure reported by the remote store: network
// errors, permission denials, validation failures, not-found. It is always
// propagated to the caller, never retried and never swallowed.
type PersistenceError struct {
	Op         string
	Collection string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
