package application

import (
	"errors"

	"github.com/oksasatya/galactic-postbox/pkg/validation"
)

// Error kinds. Handlers map each kind to one HTTP status.
var (
	ErrValidation  = errors.New("validation failed")
	ErrConflict    = errors.New("conflict")
	ErrAuth        = errors.New("unauthorized")
	ErrNotFound    = errors.New("not found")
	ErrTooLarge    = errors.New("payload too large")
	ErrUnavailable = errors.New("unavailable")
)

// Error is a client-facing failure. Message is shown to the user verbatim.
type Error struct {
	Kind    error
	Message string
	Details []validation.FieldError
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func fieldError(field, message string) *Error {
	return &Error{
		Kind:    ErrValidation,
		Message: message,
		Details: []validation.FieldError{{Field: field, Message: message}},
	}
}

// validationError wraps validator output from validate.Struct.
func validationError(err error) *Error {
	details := validation.ToDetails(err)
	return &Error{Kind: ErrValidation, Message: validation.Message(details), Details: details}
}
