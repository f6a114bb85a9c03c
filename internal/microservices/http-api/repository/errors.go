package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotificationNotFound is returned when no notification matches the id and owning vendor
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrVendorNotFound is returned when the vendor directory has no such vendor
	ErrVendorNotFound = errors.New("vendor not found")

	// ErrDuplicateNotification is returned when an id is reused on create
	ErrDuplicateNotification = errors.New("duplicate notification")
)

// PersistenceError wraps a failure of the backing store itself.
// Callers must never swallow it: losing the write loses the notification.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("notification store: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistenceErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
