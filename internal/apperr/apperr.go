// Package apperr holds the input-validation error shared by the domain packages.
package apperr

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks a client-side input fault.
var ErrInvalidInput = errors.New("invalid input")

// Validation failure codes.
const (
	CodeRequired = "required"
	CodeDigits   = "digits"
	CodeRange    = "range"
	CodeFormat   = "format"
)

// FieldError reports which request field failed validation and how.
type FieldError struct {
	Field string
	Code  string
}

// Field returns a *FieldError for field.
func Field(field, code string) error {
	return &FieldError{Field: field, Code: code}
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Code)
}

// Unwrap lets errors.Is(err, ErrInvalidInput) match.
func (e *FieldError) Unwrap() error { return ErrInvalidInput }
