package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// mapWriteErr converts driver errors from INSERT/UPDATE into domain errors.
func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return domain.ErrAccountExists()
		case pgForeignKeyViolation:
			return domain.ErrAccountNotFound()
		case pgCheckViolation:
			return domain.Wrap(domain.KindValidation, domain.CodeInvalidField, "record violates "+pgErr.ConstraintName, err)
		}
	}
	return domain.ErrDBUnavailable(err)
}
