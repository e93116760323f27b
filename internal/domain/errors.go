package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrValidation        = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrInvalidTransition = errors.New("la solicitud ya fue decidida")
	ErrInsufficientStock = errors.New("stock insuficiente")
	// ErrIntegrity lo devuelve el ledger cuando un asiento dejaría el saldo en negativo.
	ErrIntegrity = errors.New("violación de integridad del ledger")
	// ErrLockTimeout es el único error reintentable: no se confirmó nada.
	ErrLockTimeout = errors.New("tiempo de espera agotado al bloquear el saldo")
)

// Validation envuelve ErrValidation con un mensaje que se devuelve tal cual al cliente.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Retryable indica si la operación puede repetirse sin riesgo de estado parcial.
func Retryable(err error) bool {
	return errors.Is(err, ErrLockTimeout)
}
