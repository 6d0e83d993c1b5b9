package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"campus-events/internal/apperr"
)

// Postgres SQLSTATE codes we translate.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqNotNullViolation    = "23502"
	pqCheckViolation      = "23514"
	pqInvalidText         = "22P02"
	pqInvalidDatetime     = "22007"
	pqDatetimeOverflow    = "22008"
	pqStringTooLong       = "22001"
)

// Classify wraps driver errors with the matching apperr kind so the HTTP
// layer can answer 4xx instead of 500. Unknown errors are returned as is.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if kind := kindOf(err); kind != nil {
		return fmt.Errorf("%w: %w", kind, err)
	}
	return err
}

func kindOf(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return apperr.ErrConflict
		case pqForeignKeyViolation:
			return apperr.ErrNotFound
		case pqNotNullViolation, pqCheckViolation, pqInvalidText, pqInvalidDatetime, pqDatetimeOverflow, pqStringTooLong:
			return apperr.ErrValidation
		}
		return nil
	}

	// SQLite drivers only expose the message text.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return apperr.ErrConflict
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return apperr.ErrNotFound
	case strings.Contains(msg, "NOT NULL constraint failed"), strings.Contains(msg, "CHECK constraint failed"):
		return apperr.ErrValidation
	}
	return nil
}
