package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// InventoryHandler maneja saldos, asientos del ledger y recepciones de compra (protegido).
type InventoryHandler struct {
	projector *inventory.ProjectorUseCase
	executor  *inventory.MovementExecutor
	log       *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(projector *inventory.ProjectorUseCase, executor *inventory.MovementExecutor, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{projector: projector, executor: executor, log: log}
}

// Balance godoc
// @Summary      Saldo de un artículo en una ubicación
// @Description  snapshot=true lee a través del caché (pantallas); sin él, lee el saldo confirmado.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        item_id      query  string  true   "ID del artículo"
// @Param        location_id  query  string  true   "ID de la ubicación"
// @Param        snapshot     query  bool    false  "Leer desde caché"
// @Success      200  {object}  dto.BalanceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/balances [get]
func (h *InventoryHandler) Balance(c *fiber.Ctx) error {
	itemID, locationID := c.Query("item_id"), c.Query("location_id")
	snapshot := c.QueryBool("snapshot", false)
	var (
		qty int64
		err error
	)
	if snapshot {
		qty, err = h.projector.Snapshot(c.UserContext(), itemID, locationID)
	} else {
		qty, err = h.projector.Balance(c.UserContext(), itemID, locationID)
	}
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.BalanceResponse{ItemID: itemID, LocationID: locationID, Available: qty, Snapshot: snapshot})
}

// Entries godoc
// @Summary      Asientos del ledger de un par artículo/ubicación
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        item_id      query  string  true  "ID del artículo"
// @Param        location_id  query  string  true  "ID de la ubicación"
// @Success      200  {array}   dto.LedgerEntryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ledger/entries [get]
func (h *InventoryHandler) Entries(c *fiber.Ctx) error {
	itemID, locationID := c.Query("item_id"), c.Query("location_id")
	if itemID == "" || locationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "item_id y location_id son requeridos"})
	}
	out := []dto.LedgerEntryResponse{}
	for e, err := range h.projector.Entries(c.UserContext(), itemID, locationID) {
		if err != nil {
			return writeError(c, h.log, err)
		}
		out = append(out, toLedgerEntryResponse(e))
	}
	return c.JSON(out)
}

// Rebuild godoc
// @Summary      Reconstruir saldos desde el ledger
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]int
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/ledger/rebuild [post]
func (h *InventoryHandler) Rebuild(c *fiber.Ctx) error {
	n, err := h.projector.Rebuild(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	h.log.Info().Int("pairs", n).Str("actor", GetUserID(c)).Msg("saldos reconstruidos")
	return c.JSON(fiber.Map{"pairs": n})
}

// Receive godoc
// @Summary      Registrar recepción de compra
// @Description  Punto de entrada del módulo de adquisiciones: un asiento RECEIPT positivo.
// @Tags         procurement
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiptRequest  true  "item_id, location_id, quantity, reference"
// @Success      201   {array}   dto.LedgerEntryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/procurements/receipts [post]
func (h *InventoryHandler) Receive(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.ReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	entries, err := h.executor.Receive(c.UserContext(), inventory.ReceiptInput{
		ItemID:     in.ItemID,
		LocationID: in.LocationID,
		Quantity:   in.Quantity,
		ActorID:    userID,
		Reference:  in.Reference,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toLedgerEntryResponse(e))
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func toLedgerEntryResponse(e *entity.LedgerEntry) dto.LedgerEntryResponse {
	return dto.LedgerEntryResponse{
		ID:               e.ID,
		TransactionID:    e.TransactionID,
		ItemID:           e.ItemID,
		LocationID:       e.LocationID,
		Kind:             e.Kind,
		Delta:            e.Delta,
		RelatedRequestID: e.RelatedRequestID,
		Reference:        e.Reference,
		ActorID:          e.ActorID,
		OccurredAt:       e.OccurredAt,
	}
}
