// Package apperr defines the error taxonomy shared by Quayside services.
//
// Services return these errors (usually wrapped with fmt.Errorf and %w) so
// the HTTP layer can map them to status codes without string matching:
// ErrNotFound -> 404, ErrForbidden -> 403, ValidationError -> 400.
// Anything else is treated as an internal error and propagated unchanged.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the caller is not a member of the project
	// that owns the requested entity.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports a missing or malformed request field by name.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("parameter %q required", e.Field)
	}
	return fmt.Sprintf("parameter %q %s", e.Field, e.Reason)
}

// Validation builds a ValidationError for a missing required field.
func Validation(field string) error {
	return &ValidationError{Field: field}
}

// Validationf builds a ValidationError with a reason.
func Validationf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// AsValidation unwraps err into a ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
