package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")

	// ErrInvitationNotPending is returned when a conditional invitation
	// transition finds the row already resolved.
	ErrInvitationNotPending = errors.New("invitation is not pending")

	// ErrSoleAdmin is returned when a write would leave a group with no admins.
	ErrSoleAdmin = errors.New("user is the group's only admin")
)

const (
	uniqueViolation = "23505"

	// Postgres rejects a malformed uuid literal with this code.
	invalidTextRepresentation = "22P02"
)

// isUniqueViolation works for both pgxpool and database/sql (pgx stdlib)
// callers since both surface *pgconn.PgError.
func isUniqueViolation(err error) bool {
	return hasCode(err, uniqueViolation)
}

// isNotFound reports a lookup that cannot match a row: no rows, or an id
// that is not a valid uuid and so can never exist.
func isNotFound(err error) bool {
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	return hasCode(err, invalidTextRepresentation)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
