package service

import (
	"errors"
	"fmt"
)

// ErrVendorHasNoEmail means the vendor exists but has no address to alert
var ErrVendorHasNoEmail = errors.New("vendor has no email address")

// ValidationError rejects a notification before anything is written
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
