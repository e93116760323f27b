package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// ReportHandler reportes de solo lectura sobre el ledger (protegido).
type ReportHandler struct {
	deadStock        *inventory.DeadStockUseCase
	defaultThreshold int
	log              *logger.Logger
}

// NewReportHandler construye el handler.
func NewReportHandler(deadStock *inventory.DeadStockUseCase, defaultThreshold int, log *logger.Logger) *ReportHandler {
	return &ReportHandler{deadStock: deadStock, defaultThreshold: defaultThreshold, log: log}
}

// DeadStock godoc
// @Summary      Reporte de stock muerto
// @Description  Pares con saldo > 0 sin movimiento desde hace al menos threshold_days días.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        threshold_days  query  int  false  "Umbral en días (por defecto LEDGER_DEAD_STOCK_DAYS)"
// @Success      200  {object}  dto.DeadStockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/dead-stock [get]
func (h *ReportHandler) DeadStock(c *fiber.Ctx) error {
	threshold := c.QueryInt("threshold_days", h.defaultThreshold)
	if threshold < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "threshold_days no puede ser negativo"})
	}
	out := dto.DeadStockResponse{ThresholdDays: threshold, Rows: []dto.DeadStockDTO{}}
	for row, err := range h.deadStock.Scan(c.UserContext(), threshold) {
		if err != nil {
			return writeError(c, h.log, err)
		}
		out.Rows = append(out.Rows, dto.DeadStockDTO{
			ItemID:         row.ItemID,
			ItemName:       row.ItemName,
			LocationID:     row.LocationID,
			Available:      row.Quantity,
			LastMovementAt: row.LastMovementAt,
			DaysIdle:       row.DaysIdle,
			IdleValue:      row.IdleValue,
		})
	}
	out.Total = len(out.Rows)
	return c.JSON(out)
}
