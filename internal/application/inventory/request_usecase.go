package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// RequestUseCase gobierna el ciclo de vida de solicitudes de traslado y de baja:
// PENDING → APPROVED | REJECTED, con modificación opcional de cantidad antes de aprobar.
type RequestUseCase struct {
	stockRepo   repository.StockRequestRepository
	discardRepo repository.DiscardRequestRepository
	executor    *MovementExecutor
}

// NewRequestUseCase construye el motor de solicitudes.
func NewRequestUseCase(
	stockRepo repository.StockRequestRepository,
	discardRepo repository.DiscardRequestRepository,
	executor *MovementExecutor,
) *RequestUseCase {
	return &RequestUseCase{
		stockRepo:   stockRepo,
		discardRepo: discardRepo,
		executor:    executor,
	}
}

// CreateStockRequestInput entrada para crear una solicitud de traslado o requisición.
type CreateStockRequestInput struct {
	ItemID         string
	Quantity       int64
	RequestedBy    string
	FromLocationID string
	ToLocationID   *string // nil = requisición pura
	Notes          string
}

// CreateDiscardRequestInput entrada para crear una solicitud de baja.
type CreateDiscardRequestInput struct {
	ItemID      string
	LocationID  string
	Quantity    int64
	Reason      string
	RequestedBy string
	Notes       string
}

// DecideInput decisión de un aprobador. ApprovedQuantity nil = candidata o solicitada.
type DecideInput struct {
	RequestID        string
	ActorID          string
	Outcome          inventory.Outcome
	ApprovedQuantity *int64
	Reason           string
}

// CreateStockRequest valida y crea la solicitud en PENDING. No consulta saldos:
// el saldo puede cambiar antes de la decisión.
func (uc *RequestUseCase) CreateStockRequest(ctx context.Context, in CreateStockRequestInput) (*entity.StockRequest, error) {
	if in.ItemID == "" || in.FromLocationID == "" {
		return nil, domain.Validation("item_id y from_location_id son requeridos")
	}
	if in.RequestedBy == "" {
		return nil, domain.Validation("solicitante requerido")
	}
	if in.Quantity <= 0 {
		return nil, domain.Validation("la cantidad debe ser mayor que cero")
	}
	if in.ToLocationID != nil && *in.ToLocationID == "" {
		in.ToLocationID = nil
	}
	if in.ToLocationID != nil && *in.ToLocationID == in.FromLocationID {
		return nil, domain.Validation("la ubicación origen y destino deben ser distintas")
	}
	if err := uc.executor.ensureItem(ctx, in.ItemID); err != nil {
		return nil, err
	}
	if err := uc.executor.ensureLocation(ctx, in.FromLocationID); err != nil {
		return nil, err
	}
	if in.ToLocationID != nil {
		if err := uc.executor.ensureLocation(ctx, *in.ToLocationID); err != nil {
			return nil, err
		}
	}

	req := &entity.StockRequest{
		ID:                uuid.New().String(),
		ItemID:            in.ItemID,
		QuantityRequested: in.Quantity,
		RequestedBy:       in.RequestedBy,
		FromLocationID:    in.FromLocationID,
		ToLocationID:      in.ToLocationID,
		Status:            entity.RequestStatusPending,
		Notes:             in.Notes,
		CreatedAt:         uc.executor.now(),
	}
	if err := uc.stockRepo.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// CreateDiscardRequest valida y crea la solicitud de baja en PENDING.
func (uc *RequestUseCase) CreateDiscardRequest(ctx context.Context, in CreateDiscardRequestInput) (*entity.DiscardRequest, error) {
	if in.ItemID == "" || in.LocationID == "" {
		return nil, domain.Validation("item_id y location_id son requeridos")
	}
	if in.RequestedBy == "" {
		return nil, domain.Validation("solicitante requerido")
	}
	if in.Quantity <= 0 {
		return nil, domain.Validation("la cantidad debe ser mayor que cero")
	}
	if !inventory.ValidDiscardReason(in.Reason) {
		return nil, domain.Validation("motivo de baja desconocido: %q", in.Reason)
	}
	if err := uc.executor.ensureItem(ctx, in.ItemID); err != nil {
		return nil, err
	}
	if err := uc.executor.ensureLocation(ctx, in.LocationID); err != nil {
		return nil, err
	}

	req := &entity.DiscardRequest{
		ID:          uuid.New().String(),
		ItemID:      in.ItemID,
		LocationID:  in.LocationID,
		Quantity:    in.Quantity,
		Reason:      in.Reason,
		RequestedBy: in.RequestedBy,
		Status:      entity.RequestStatusPending,
		Notes:       in.Notes,
		CreatedAt:   uc.executor.now(),
	}
	if err := uc.discardRepo.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ModifyStockRequest fija la cantidad candidata a aprobar sin tocar la solicitada. Solo en PENDING.
func (uc *RequestUseCase) ModifyStockRequest(ctx context.Context, id string, quantity int64) (*entity.StockRequest, error) {
	var out *entity.StockRequest
	err := uc.inTx(ctx, func(repos Repos) error {
		req, err := repos.Stock.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("%w: solicitud %s", domain.ErrNotFound, id)
		}
		if req.Status != entity.RequestStatusPending {
			return fmt.Errorf("%w: estado actual %s", domain.ErrInvalidTransition, req.Status)
		}
		if err := inventory.ValidateModification(req.QuantityRequested, quantity); err != nil {
			return err
		}
		req.QuantityApproved = &quantity
		if err := repos.Stock.Update(ctx, req); err != nil {
			return err
		}
		out = req
		return nil
	})
	return out, err
}

// ModifyDiscardRequest fija la cantidad candidata de una baja. Solo en PENDING.
func (uc *RequestUseCase) ModifyDiscardRequest(ctx context.Context, id string, quantity int64) (*entity.DiscardRequest, error) {
	var out *entity.DiscardRequest
	err := uc.inTx(ctx, func(repos Repos) error {
		req, err := repos.Discards.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("%w: solicitud %s", domain.ErrNotFound, id)
		}
		if req.Status != entity.RequestStatusPending {
			return fmt.Errorf("%w: estado actual %s", domain.ErrInvalidTransition, req.Status)
		}
		if err := inventory.ValidateModification(req.Quantity, quantity); err != nil {
			return err
		}
		req.QuantityApproved = &quantity
		if err := repos.Discards.Update(ctx, req); err != nil {
			return err
		}
		out = req
		return nil
	})
	return out, err
}

// DecideStockRequest aprueba o rechaza un traslado. Si la aprobación pierde la carrera por el
// stock, la solicitud queda REJECTED y se devuelve junto con ErrInsufficientStock.
func (uc *RequestUseCase) DecideStockRequest(ctx context.Context, in DecideInput) (*entity.StockRequest, error) {
	t := &stockDecision{}
	err := uc.decide(ctx, t, in)
	return t.req, err
}

// DecideDiscardRequest aprueba o rechaza una baja con la misma semántica que los traslados.
func (uc *RequestUseCase) DecideDiscardRequest(ctx context.Context, in DecideInput) (*entity.DiscardRequest, error) {
	t := &discardDecision{}
	err := uc.decide(ctx, t, in)
	return t.req, err
}

func (uc *RequestUseCase) decide(ctx context.Context, t decisionTarget, in DecideInput) error {
	if in.RequestID == "" {
		return domain.Validation("id de solicitud requerido")
	}
	if in.ActorID == "" {
		return domain.Validation("aprobador requerido")
	}
	target := entity.RequestStatusApproved
	switch in.Outcome {
	case inventory.OutcomeApprove:
	case inventory.OutcomeReject:
		target = entity.RequestStatusRejected
	default:
		return domain.Validation("outcome debe ser APPROVE o REJECT")
	}

	var (
		insufficient error
		applied      []*entity.LedgerEntry
		movement     inventory.Movement
	)
	err := uc.inTx(ctx, func(repos Repos) error {
		insufficient, applied = nil, nil
		found, err := t.load(ctx, repos, in.RequestID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: solicitud %s", domain.ErrNotFound, in.RequestID)
		}
		if err := inventory.Transition(t.status(), target); err != nil {
			return err
		}
		now := uc.executor.now()
		if target == entity.RequestStatusRejected {
			t.reject(in.ActorID, in.Reason, now)
			return t.save(ctx, repos)
		}

		qty, err := t.resolve(in.ApprovedQuantity)
		if err != nil {
			return err
		}
		movement = t.movement(in.ActorID, qty)
		entries, err := uc.executor.Execute(ctx, repos.Ledger, movement)
		if errors.Is(err, domain.ErrInsufficientStock) {
			// Se confirma el rechazo para que la solicitud no quede ambigua.
			insufficient = err
			t.reject(in.ActorID, inventory.ReasonInsufficientStock, now)
			return t.save(ctx, repos)
		}
		if err != nil {
			return err
		}
		t.approve(in.ActorID, qty, now)
		if err := t.save(ctx, repos); err != nil {
			return err
		}
		applied = entries
		return nil
	})
	if err != nil {
		return err
	}
	if insufficient != nil {
		uc.executor.metrics.RequestDecided(t.kind(), "insufficient_stock")
		return insufficient
	}
	if target == entity.RequestStatusRejected {
		uc.executor.metrics.RequestDecided(t.kind(), "rejected")
		return nil
	}
	uc.executor.metrics.RequestDecided(t.kind(), "approved")
	uc.executor.committed(ctx, t.kind(), movement, applied)
	return nil
}

// GetStockRequest obtiene una solicitud de traslado por ID.
func (uc *RequestUseCase) GetStockRequest(ctx context.Context, id string) (*entity.StockRequest, error) {
	req, err := uc.stockRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: solicitud %s", domain.ErrNotFound, id)
	}
	return req, nil
}

// GetDiscardRequest obtiene una solicitud de baja por ID.
func (uc *RequestUseCase) GetDiscardRequest(ctx context.Context, id string) (*entity.DiscardRequest, error) {
	req, err := uc.discardRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: solicitud %s", domain.ErrNotFound, id)
	}
	return req, nil
}

// ListStockRequests lista traslados por estado; con PENDING es la cola del aprobador.
func (uc *RequestUseCase) ListStockRequests(ctx context.Context, status entity.RequestStatus, limit, offset int) ([]*entity.StockRequest, error) {
	if err := validStatusFilter(status); err != nil {
		return nil, err
	}
	return uc.stockRepo.ListByStatus(ctx, status, limit, offset)
}

// ListDiscardRequests lista bajas por estado.
func (uc *RequestUseCase) ListDiscardRequests(ctx context.Context, status entity.RequestStatus, limit, offset int) ([]*entity.DiscardRequest, error) {
	if err := validStatusFilter(status); err != nil {
		return nil, err
	}
	return uc.discardRepo.ListByStatus(ctx, status, limit, offset)
}

func (uc *RequestUseCase) inTx(ctx context.Context, fn func(repos Repos) error) error {
	return uc.executor.retry.do(ctx, uc.executor.metrics, func(ctx context.Context) error {
		return uc.executor.txRunner.Run(ctx, fn)
	})
}

func validStatusFilter(s entity.RequestStatus) error {
	switch s {
	case "", entity.RequestStatusPending, entity.RequestStatusApproved, entity.RequestStatusRejected:
		return nil
	}
	return domain.Validation("estado desconocido: %q", s)
}
