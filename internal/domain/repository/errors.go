package repository

import "errors"

// ErrNotFound is returned when no row matches the lookup, including rows
// that exist but are not visible to the caller.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is matched by every *DuplicateError.
var ErrDuplicate = errors.New("duplicate")

// DuplicateError reports a unique constraint violation on Field
// ("username", "email" or "address").
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string { return "duplicate " + e.Field }

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }
