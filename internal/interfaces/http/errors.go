package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// writeError traduce errores de dominio a HTTP. Los 5xx se registran con el error completo.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	status, code, msg := classify(err)
	if status >= fiber.StatusInternalServerError {
		ev := log.Error()
		if status == fiber.StatusServiceUnavailable {
			ev = log.Warn()
		}
		ev.Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("code", code).
			Msg("error atendiendo petición")
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest, "VALIDATION", err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND", err.Error()
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, "DUPLICATE", "el recurso ya existe"
	case errors.Is(err, domain.ErrInvalidTransition):
		return fiber.StatusConflict, "INVALID_TRANSITION", err.Error()
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict, "INSUFFICIENT_STOCK", "el stock ya no está disponible, actualice la consulta"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN", "acceso denegado al recurso"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED", "no autorizado"
	case errors.Is(err, domain.ErrLockTimeout):
		return fiber.StatusServiceUnavailable, "LOCK_TIMEOUT", "el saldo está ocupado por otra operación, reintente"
	case errors.Is(err, domain.ErrIntegrity):
		return fiber.StatusInternalServerError, "INTEGRITY", "violación de integridad del ledger"
	}
	return fiber.StatusInternalServerError, "INTERNAL", "error interno"
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

// pagination lee limit/offset con los mismos topes en todos los listados.
func pagination(c *fiber.Ctx) (int, int) {
	p := dto.PageRequest{
		Limit:  c.QueryInt("limit", dto.DefaultPageLimit),
		Offset: c.QueryInt("offset", 0),
	}.Normalize()
	return p.Limit, p.Offset
}
