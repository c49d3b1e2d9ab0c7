// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrDuplicateKey is returned when an insert violates a uniqueness
// constraint. Callers that treat a duplicate as a benign outcome (the like
// toggle under a concurrent race) must match this sentinel with errors.Is
// rather than catching errors broadly.
var ErrDuplicateKey = errors.New("duplicate key")

// pgUniqueViolation is the PostgreSQL error code for unique_violation.
const pgUniqueViolation = "23505"

// translateError maps driver-specific uniqueness violations onto
// ErrDuplicateKey and passes everything else through unchanged. The sqlite
// branch exists for the test database, which reports constraint violations
// by message only.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicateKey
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicateKey
	}
	return err
}
