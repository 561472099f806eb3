package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Typed outcomes for every facade operation. The routing layer matches with
// errors.Is; no raw driver fault crosses the facade boundary.
var (
	// ErrNotFound means a referenced entity is absent.
	ErrNotFound = errors.New("not found")
	// ErrDenied means the supplied credentials do not match.
	ErrDenied = errors.New("denied")
	// ErrInvalidArgument means a value is outside its allowed set.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrPersistence covers constraint violations and connectivity faults.
	ErrPersistence = errors.New("persistence error")
	// ErrResourceExhausted means no pooled connection became available in time.
	ErrResourceExhausted = errors.New("resource exhausted")
)

// Postgres error codes the facade cares about.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// wrapDBError converts a lower-level fault into one of the typed outcomes,
// tagged with the operation name. A foreign-key violation surfaces as
// ErrNotFound: the referenced row does not exist.
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDenied),
		errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrResourceExhausted),
		errors.Is(err, ErrPersistence):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s: %v", ErrResourceExhausted, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s: referenced row missing", ErrNotFound, op)
		case pgUniqueViolation, pgCheckViolation:
			return fmt.Errorf("%w: %s: %s", ErrPersistence, op, pgErr.Message)
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}
