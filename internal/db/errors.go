package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/Spok95/tutor-platform/internal/apperr"
)

// SQLSTATE, которые переводим в ошибки ядра.
const (
	codeLockNotAvailable     = "55P03"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeNotNullViolation     = "23502"
	codeUniqueViolation      = "23505"
)

// classify переводит ошибку драйвера в apperr. Разбирает оба драйвера:
// pgx в проде и lib/pq в интеграционных тестах.
func classify(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Wrap(apperr.ErrNotFound, "%s", what)
	}

	var code, detail string
	var pgErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgErr):
		code, detail = pgErr.Code, pgErr.Message
	case errors.As(err, &pqErr):
		code, detail = string(pqErr.Code), pqErr.Message
	default:
		return fmt.Errorf("%s: %w", what, err)
	}

	switch code {
	case codeLockNotAvailable, codeSerializationFailure, codeDeadlockDetected:
		return apperr.Wrap(apperr.ErrConcurrencyConflict, "%s: %s", what, detail)
	case codeForeignKeyViolation:
		return apperr.Wrap(apperr.ErrNotFound, "%s: referenced row does not exist", what)
	case codeCheckViolation:
		return apperr.Wrap(apperr.ErrInvalidRange, "%s: %s", what, detail)
	case codeNotNullViolation, codeUniqueViolation:
		return apperr.Wrap(apperr.ErrInvalidInput, "%s: %s", what, detail)
	}
	return fmt.Errorf("%s: %w", what, err)
}
