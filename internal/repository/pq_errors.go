package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqExclusionViolation  = "23P01"
	pqInvalidText         = "22P02"
)

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return hasPQCode(err, pqUniqueViolation)
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	return hasPQCode(err, pqForeignKeyViolation)
}

// IsExclusionViolation reports whether err was raised by an exclusion
// constraint, such as the class session overlap guards.
func IsExclusionViolation(err error) bool {
	return hasPQCode(err, pqExclusionViolation)
}

// IsInvalidTextRepresentation reports whether Postgres rejected a literal
// for its column type, such as a malformed uuid.
func IsInvalidTextRepresentation(err error) bool {
	return hasPQCode(err, pqInvalidText)
}

// isUUID reports whether id can address a UUID primary key. Lookups by any
// other id are answered with sql.ErrNoRows without a round trip.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ConstraintName returns the violated constraint, if any.
func ConstraintName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}

func hasPQCode(err error, code string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}

// pageBounds normalises pagination input into a limit and offset.
func pageBounds(page, size int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}
