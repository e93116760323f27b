package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// HTTPObserver recibe una observación por petición (métricas Prometheus en producción).
type HTTPObserver interface {
	ObserveHTTP(method, route, status string, seconds float64)
}

// RequestLogger registra cada petición con zerolog y, si hay observer, alimenta las métricas.
func RequestLogger(log *logger.Logger, obs HTTPObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// deja que el ErrorHandler de Fiber fije el status antes de registrar
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		elapsed := time.Since(start)
		status := c.Response().StatusCode()

		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", elapsed).
			Str("actor", GetUserID(c)).
			Msg("http")

		if obs != nil {
			obs.ObserveHTTP(c.Method(), c.Route().Path, strconv.Itoa(status), elapsed.Seconds())
		}
		return nil
	}
}
