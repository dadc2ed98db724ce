package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/galactic-postbox/internal/domain/repository"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	invalidTextRepr     = "22P02" // malformed uuid
)

// unique index name -> user-facing field
var uniqueFields = map[string]string{
	"users_username_key": "username",
	"users_email_key":    "email",
	"users_address_key":  "address",
}

// mapError translates driver errors into repository sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case foreignKeyViolation, invalidTextRepr:
		return repository.ErrNotFound
	case uniqueViolation:
		if field, ok := uniqueFields[pgErr.ConstraintName]; ok {
			return &repository.DuplicateError{Field: field}
		}
		return &repository.DuplicateError{Field: pgErr.ConstraintName}
	}
	return err
}
