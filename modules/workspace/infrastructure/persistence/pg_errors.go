package persistence

import (
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapPgError turns driver errors into typed errors; everything else is wrapped with msg.
func mapPgError(err error, notFound *serrors.Error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound.WithCause(err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if pgErr.ConstraintName == "users_email_key" {
				return serrors.Conflict("EMAIL_TAKEN", "email is already registered").WithCause(err)
			}
			return serrors.Conflict("UNIQUE_VIOLATION", "record already exists").WithCause(err)
		case pgForeignKeyViolation:
			return serrors.Validation("REFERENCE_MISSING", pgErr.ColumnName, "referenced record does not exist").WithCause(err)
		}
	}
	return errors.Wrap(err, msg)
}
