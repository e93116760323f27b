package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/stockledger-api/internal/domain"
)

// Códigos SQLSTATE que el dominio distingue.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeInvalidText         = "22P02"
	codeLockNotAvailable    = "55P03"
	codeDeadlockDetected    = "40P01"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeUniqueViolation
	}
	return strings.Contains(err.Error(), codeUniqueViolation)
}

// mapPgError traduce errores de PostgreSQL a errores de dominio. op identifica la operación en el mensaje.
func mapPgError(err error, op string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	switch pgErr.Code {
	case codeCheckViolation:
		return fmt.Errorf("%w: %s (%s)", domain.ErrIntegrity, op, pgErr.ConstraintName)
	case codeLockNotAvailable, codeDeadlockDetected:
		return fmt.Errorf("%w: %s", domain.ErrLockTimeout, op)
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", domain.ErrDuplicate, op)
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %s (%s)", domain.ErrNotFound, op, pgErr.ConstraintName)
	case codeInvalidText:
		return domain.Validation("identificador inválido")
	}
	return fmt.Errorf("%s: %w", op, err)
}
