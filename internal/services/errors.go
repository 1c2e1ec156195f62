// Package services implements the business logic of the borrowing tracker:
// record lifecycle operations, sequential id assignment, availability
// checking, and settings upserts. This file centralizes the service-level
// error values; translation into HTTP status codes happens at the handler
// layer.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrRecordNotFound indicates that no borrowing record with the given
	// id exists in the current record set.
	ErrRecordNotFound = errors.New("borrowing record not found")

	// ErrRecordReturned is returned when a lifecycle operation is attempted
	// on a record that has already reached its terminal returned state.
	ErrRecordReturned = errors.New("record already returned")
)

// ValidationError is a field-level input failure raised before any I/O.
// Callers re-prompt the user; nothing is retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// invalid is shorthand for constructing a *ValidationError.
func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
