package db

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"officecrm/internal/apperr"
)

// SQLSTATE codes the store reacts to.
const (
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
	pgStringTooLong       = "22001"
	pgForeignKeyViolation = "23503"
	pgSerialization       = "40001"
	pgDeadlock            = "40P01"
	pgLockNotAvailable    = "55P03"
)

// mapErr translates a driver error raised by an insert, update or read.
// A foreign key failure there means the referenced row does not exist.
func mapErr(err error) error {
	return translate(err, false)
}

// mapDeleteErr translates errors of a delete, where a foreign key failure
// means the row is still referenced.
func mapDeleteErr(err error) error {
	return translate(err, true)
}

func translate(err error, deleting bool) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Wrap(apperr.NotFound, err, "record not found")
	}

	if code, ok := sqlState(err); ok {
		return fromSQLState(err, code, deleting)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return fromSQLite(err, liteErr, deleting)
	}

	return apperr.Wrap(apperr.Internal, err, "database error")
}

func sqlState(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, true
	}
	return "", false
}

func fromSQLState(err error, code string, deleting bool) error {
	switch code {
	case pgUniqueViolation:
		return apperr.Wrap(apperr.Conflict, err, "record with the same unique key already exists")
	case pgCheckViolation, pgNotNullViolation, pgStringTooLong:
		return apperr.Wrap(apperr.ConstraintViolation, err, "value violates a storage constraint")
	case pgForeignKeyViolation:
		return foreignKey(err, deleting)
	case pgSerialization, pgDeadlock, pgLockNotAvailable:
		return apperr.Retryable(err, "concurrent update detected, retry the request")
	}
	return apperr.Wrap(apperr.Internal, err, "database error")
}

func fromSQLite(err error, liteErr sqlite3.Error, deleting bool) error {
	switch liteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return apperr.Wrap(apperr.Conflict, err, "record with the same unique key already exists")
	case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
		return apperr.Wrap(apperr.ConstraintViolation, err, "value violates a storage constraint")
	case sqlite3.ErrConstraintForeignKey, sqlite3.ErrConstraintTrigger:
		// ON DELETE RESTRICT срабатывает как триггер, а не как ErrConstraintForeignKey
		return foreignKey(err, deleting)
	}
	switch liteErr.Code {
	case sqlite3.ErrConstraint:
		if strings.Contains(liteErr.Error(), "FOREIGN KEY") {
			return foreignKey(err, deleting)
		}
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return apperr.Retryable(err, "database is busy, retry the request")
	}
	return apperr.Wrap(apperr.Internal, err, "database error")
}

func foreignKey(err error, deleting bool) error {
	if deleting {
		return apperr.Wrap(apperr.Conflict, err, "record is still referenced by other records")
	}
	return apperr.Wrap(apperr.NotFound, err, "referenced record does not exist")
}
