package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	domaininv "github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// RequestHandler solicitudes de traslado/requisición y de baja (protegido).
type RequestHandler struct {
	uc  *inventory.RequestUseCase
	log *logger.Logger
}

// NewRequestHandler construye el handler.
func NewRequestHandler(uc *inventory.RequestUseCase, log *logger.Logger) *RequestHandler {
	return &RequestHandler{uc: uc, log: log}
}

// CreateStock godoc
// @Summary      Crear solicitud de traslado
// @Description  Sin to_location_id es una requisición: al aprobarse solo descuenta del origen.
// @Tags         stock-requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStockRequestRequest  true  "item_id, quantity, from_location_id, to_location_id"
// @Success      201   {object}  dto.StockRequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock-requests [post]
func (h *RequestHandler) CreateStock(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.CreateStockRequestRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	req, err := h.uc.CreateStockRequest(c.UserContext(), inventory.CreateStockRequestInput{
		ItemID:         in.ItemID,
		Quantity:       in.Quantity,
		RequestedBy:    userID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Notes:          in.Notes,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toStockRequestResponse(req))
}

// ListStock godoc
// @Summary      Listar solicitudes de traslado
// @Description  status=PENDING es la cola del aprobador, más antiguas primero.
// @Tags         stock-requests
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "PENDING | APPROVED | REJECTED"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.StockRequestListResponse
// @Router       /api/stock-requests [get]
func (h *RequestHandler) ListStock(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	list, err := h.uc.ListStockRequests(c.UserContext(), statusQuery(c), limit, offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	items := make([]dto.StockRequestResponse, 0, len(list))
	for _, r := range list {
		items = append(items, toStockRequestResponse(r))
	}
	return c.JSON(dto.StockRequestListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}})
}

// GetStock godoc
// @Summary      Obtener solicitud de traslado
// @Tags         stock-requests
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.StockRequestResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock-requests/{id} [get]
func (h *RequestHandler) GetStock(c *fiber.Ctx) error {
	req, err := h.uc.GetStockRequest(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toStockRequestResponse(req))
}

// ModifyStock godoc
// @Summary      Modificar cantidad a aprobar
// @Description  Fija la cantidad candidata (0 < q <= solicitada). Solo en PENDING.
// @Tags         stock-requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID de la solicitud"
// @Param        body  body  dto.ModifyRequestRequest  true  "quantity"
// @Success      200   {object}  dto.StockRequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock-requests/{id} [patch]
func (h *RequestHandler) ModifyStock(c *fiber.Ctx) error {
	var in dto.ModifyRequestRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	req, err := h.uc.ModifyStockRequest(c.UserContext(), c.Params("id"), in.Quantity)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toStockRequestResponse(req))
}

// DecideStock godoc
// @Summary      Aprobar o rechazar traslado
// @Description  Al aprobar se verifica el saldo bloqueado; si ya no alcanza, la solicitud queda
//
//	REJECTED y se responde 409 INSUFFICIENT_STOCK.
//
// @Tags         stock-requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID de la solicitud"
// @Param        body  body  dto.DecisionRequest  true  "outcome, approved_quantity, reason"
// @Success      200   {object}  dto.StockRequestResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/stock-requests/{id}/decision [post]
func (h *RequestHandler) DecideStock(c *fiber.Ctx) error {
	in, err := h.decision(c)
	if err != nil {
		return err
	}
	if in == nil {
		return nil
	}
	req, err := h.uc.DecideStockRequest(c.UserContext(), *in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toStockRequestResponse(req))
}

// CreateDiscard godoc
// @Summary      Crear solicitud de baja
// @Tags         discard-requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateDiscardRequestRequest  true  "item_id, location_id, quantity, reason"
// @Success      201   {object}  dto.DiscardRequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/discard-requests [post]
func (h *RequestHandler) CreateDiscard(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.CreateDiscardRequestRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	req, err := h.uc.CreateDiscardRequest(c.UserContext(), inventory.CreateDiscardRequestInput{
		ItemID:      in.ItemID,
		LocationID:  in.LocationID,
		Quantity:    in.Quantity,
		Reason:      strings.ToUpper(strings.TrimSpace(in.Reason)),
		RequestedBy: userID,
		Notes:       in.Notes,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toDiscardRequestResponse(req))
}

// ListDiscard godoc
// @Summary      Listar solicitudes de baja
// @Tags         discard-requests
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "PENDING | APPROVED | REJECTED"
// @Success      200     {object}  dto.DiscardRequestListResponse
// @Router       /api/discard-requests [get]
func (h *RequestHandler) ListDiscard(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	list, err := h.uc.ListDiscardRequests(c.UserContext(), statusQuery(c), limit, offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	items := make([]dto.DiscardRequestResponse, 0, len(list))
	for _, r := range list {
		items = append(items, toDiscardRequestResponse(r))
	}
	return c.JSON(dto.DiscardRequestListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}})
}

// GetDiscard godoc
// @Summary      Obtener solicitud de baja
// @Tags         discard-requests
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.DiscardRequestResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/discard-requests/{id} [get]
func (h *RequestHandler) GetDiscard(c *fiber.Ctx) error {
	req, err := h.uc.GetDiscardRequest(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toDiscardRequestResponse(req))
}

// ModifyDiscard godoc
// @Summary      Modificar cantidad de baja a aprobar
// @Tags         discard-requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID de la solicitud"
// @Param        body  body  dto.ModifyRequestRequest  true  "quantity"
// @Success      200   {object}  dto.DiscardRequestResponse
// @Router       /api/discard-requests/{id} [patch]
func (h *RequestHandler) ModifyDiscard(c *fiber.Ctx) error {
	var in dto.ModifyRequestRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	req, err := h.uc.ModifyDiscardRequest(c.UserContext(), c.Params("id"), in.Quantity)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toDiscardRequestResponse(req))
}

// DecideDiscard godoc
// @Summary      Aprobar o rechazar baja
// @Tags         discard-requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID de la solicitud"
// @Param        body  body  dto.DecisionRequest  true  "outcome, approved_quantity, reason"
// @Success      200   {object}  dto.DiscardRequestResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/discard-requests/{id}/decision [post]
func (h *RequestHandler) DecideDiscard(c *fiber.Ctx) error {
	in, err := h.decision(c)
	if err != nil {
		return err
	}
	if in == nil {
		return nil
	}
	req, err := h.uc.DecideDiscardRequest(c.UserContext(), *in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toDiscardRequestResponse(req))
}

// decision arma el DecideInput. Si ya respondió con error devuelve (nil, err-de-escritura).
func (h *RequestHandler) decision(c *fiber.Ctx) (*inventory.DecideInput, error) {
	userID := GetUserID(c)
	if userID == "" {
		return nil, unauthorized(c)
	}
	var body dto.DecisionRequest
	if err := c.BodyParser(&body); err != nil {
		return nil, badBody(c)
	}
	outcome, err := domaininv.ParseOutcome(body.Outcome)
	if err != nil {
		return nil, writeError(c, h.log, err)
	}
	return &inventory.DecideInput{
		RequestID:        c.Params("id"),
		ActorID:          userID,
		Outcome:          outcome,
		ApprovedQuantity: body.ApprovedQuantity,
		Reason:           body.Reason,
	}, nil
}

func statusQuery(c *fiber.Ctx) entity.RequestStatus {
	return entity.RequestStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
}

func toStockRequestResponse(r *entity.StockRequest) dto.StockRequestResponse {
	return dto.StockRequestResponse{
		ID:                r.ID,
		ItemID:            r.ItemID,
		QuantityRequested: r.QuantityRequested,
		QuantityApproved:  r.QuantityApproved,
		RequestedBy:       r.RequestedBy,
		FromLocationID:    r.FromLocationID,
		ToLocationID:      r.ToLocationID,
		Status:            string(r.Status),
		Notes:             r.Notes,
		DecidedBy:         r.DecidedBy,
		DecisionReason:    r.DecisionReason,
		CreatedAt:         r.CreatedAt,
		DecidedAt:         r.DecidedAt,
	}
}

func toDiscardRequestResponse(r *entity.DiscardRequest) dto.DiscardRequestResponse {
	return dto.DiscardRequestResponse{
		ID:               r.ID,
		ItemID:           r.ItemID,
		LocationID:       r.LocationID,
		Quantity:         r.Quantity,
		QuantityApproved: r.QuantityApproved,
		Reason:           r.Reason,
		RequestedBy:      r.RequestedBy,
		Status:           string(r.Status),
		Notes:            r.Notes,
		DecidedBy:        r.DecidedBy,
		DecisionReason:   r.DecisionReason,
		CreatedAt:        r.CreatedAt,
		DecidedAt:        r.DecidedAt,
	}
}
