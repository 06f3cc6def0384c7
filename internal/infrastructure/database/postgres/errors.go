// internal/infrastructure/database/postgres/errors.go
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrorClass groups Postgres failures by how a caller should react
type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
	ErrorClassDeadlock
	ErrorClassSerialization
	ErrorClassUniqueViolation
	ErrorClassForeignKeyViolation
	ErrorClassCheckViolation
)

// SQLSTATE codes
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
)

// ClassifyError inspects err for a Postgres error code
func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassPermanent
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrorClassUniqueViolation
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrorClassForeignKeyViolation
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure:
			return ErrorClassSerialization
		case codeDeadlockDetected:
			return ErrorClassDeadlock
		case codeLockNotAvailable:
			return ErrorClassTransient
		case codeUniqueViolation:
			return ErrorClassUniqueViolation
		case codeForeignKeyViolation:
			return ErrorClassForeignKeyViolation
		case codeCheckViolation:
			return ErrorClassCheckViolation
		}
	}

	return ErrorClassPermanent
}

// IsRetryable reports whether the whole transaction may be replayed
func IsRetryable(err error) bool {
	switch ClassifyError(err) {
	case ErrorClassTransient, ErrorClassDeadlock, ErrorClassSerialization:
		return true
	}
	return false
}

// IsUniqueViolation reports a duplicate key error
func IsUniqueViolation(err error) bool {
	return ClassifyError(err) == ErrorClassUniqueViolation
}

// IsForeignKeyViolation reports a dangling or still-referenced foreign key
func IsForeignKeyViolation(err error) bool {
	return ClassifyError(err) == ErrorClassForeignKeyViolation
}

// ConstraintName returns the violated constraint, if any
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
