package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var (
	_ repository.StockRequestRepository   = (*StockRequestRepo)(nil)
	_ repository.DiscardRequestRepository = (*DiscardRequestRepo)(nil)
)

// StockRequestRepo solicitudes de traslado en memoria.
type StockRequestRepo struct {
	session
}

// Create registra la solicitud. Un ID repetido devuelve ErrDuplicate.
func (r *StockRequestRepo) Create(_ context.Context, req *entity.StockRequest) error {
	return r.write(func(tx *Tx) error {
		if r.exists(tx, req.ID) {
			return fmt.Errorf("%w: solicitud %s", domain.ErrDuplicate, req.ID)
		}
		tx.stock[req.ID] = cloneStockRequest(req)
		return nil
	})
}

// GetByID devuelve una copia; (nil, nil) si no existe.
func (r *StockRequestRepo) GetByID(_ context.Context, id string) (*entity.StockRequest, error) {
	return r.get(r.tx, id), nil
}

// GetForUpdate toma el candado de la solicitud hasta el fin de la transacción.
func (r *StockRequestRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockRequest, error) {
	var out *entity.StockRequest
	err := r.write(func(tx *Tx) error {
		if err := tx.lock(ctx, stockKey(id)); err != nil {
			return err
		}
		out = r.get(tx, id)
		return nil
	})
	return out, err
}

// Update reemplaza la solicitud al confirmar la transacción.
func (r *StockRequestRepo) Update(_ context.Context, req *entity.StockRequest) error {
	return r.write(func(tx *Tx) error {
		if !r.exists(tx, req.ID) {
			return fmt.Errorf("%w: solicitud %s", domain.ErrNotFound, req.ID)
		}
		tx.stock[req.ID] = cloneStockRequest(req)
		return nil
	})
}

// ListByStatus solicitudes confirmadas por estado (vacío = todas), más antiguas primero.
func (r *StockRequestRepo) ListByStatus(_ context.Context, status entity.RequestStatus, limit, offset int) ([]*entity.StockRequest, error) {
	r.s.mu.RLock()
	var list []*entity.StockRequest
	for _, req := range r.s.stock {
		if status == "" || req.Status == status {
			list = append(list, cloneStockRequest(req))
		}
	}
	r.s.mu.RUnlock()
	slices.SortFunc(list, func(a, b *entity.StockRequest) int {
		return compareCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return page(list, limit, offset), nil
}

func (r *StockRequestRepo) get(tx *Tx, id string) *entity.StockRequest {
	if tx != nil {
		if req, ok := tx.stock[id]; ok {
			return cloneStockRequest(req)
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if req, ok := r.s.stock[id]; ok {
		return cloneStockRequest(req)
	}
	return nil
}

func (r *StockRequestRepo) exists(tx *Tx, id string) bool {
	return r.get(tx, id) != nil
}

// DiscardRequestRepo solicitudes de baja en memoria.
type DiscardRequestRepo struct {
	session
}

// Create registra la baja. Un ID repetido devuelve ErrDuplicate.
func (r *DiscardRequestRepo) Create(_ context.Context, req *entity.DiscardRequest) error {
	return r.write(func(tx *Tx) error {
		if r.get(tx, req.ID) != nil {
			return fmt.Errorf("%w: solicitud %s", domain.ErrDuplicate, req.ID)
		}
		tx.discards[req.ID] = cloneDiscardRequest(req)
		return nil
	})
}

// GetByID devuelve una copia; (nil, nil) si no existe.
func (r *DiscardRequestRepo) GetByID(_ context.Context, id string) (*entity.DiscardRequest, error) {
	return r.get(r.tx, id), nil
}

// GetForUpdate toma el candado de la baja hasta el fin de la transacción.
func (r *DiscardRequestRepo) GetForUpdate(ctx context.Context, id string) (*entity.DiscardRequest, error) {
	var out *entity.DiscardRequest
	err := r.write(func(tx *Tx) error {
		if err := tx.lock(ctx, discardKey(id)); err != nil {
			return err
		}
		out = r.get(tx, id)
		return nil
	})
	return out, err
}

// Update reemplaza la baja al confirmar la transacción.
func (r *DiscardRequestRepo) Update(_ context.Context, req *entity.DiscardRequest) error {
	return r.write(func(tx *Tx) error {
		if r.get(tx, req.ID) == nil {
			return fmt.Errorf("%w: solicitud %s", domain.ErrNotFound, req.ID)
		}
		tx.discards[req.ID] = cloneDiscardRequest(req)
		return nil
	})
}

// ListByStatus bajas confirmadas por estado (vacío = todas).
func (r *DiscardRequestRepo) ListByStatus(_ context.Context, status entity.RequestStatus, limit, offset int) ([]*entity.DiscardRequest, error) {
	r.s.mu.RLock()
	var list []*entity.DiscardRequest
	for _, req := range r.s.discards {
		if status == "" || req.Status == status {
			list = append(list, cloneDiscardRequest(req))
		}
	}
	r.s.mu.RUnlock()
	slices.SortFunc(list, func(a, b *entity.DiscardRequest) int {
		return compareCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return page(list, limit, offset), nil
}

func (r *DiscardRequestRepo) get(tx *Tx, id string) *entity.DiscardRequest {
	if tx != nil {
		if req, ok := tx.discards[id]; ok {
			return cloneDiscardRequest(req)
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if req, ok := r.s.discards[id]; ok {
		return cloneDiscardRequest(req)
	}
	return nil
}

func cloneStockRequest(req *entity.StockRequest) *entity.StockRequest {
	cp := *req
	cp.QuantityApproved = clonePtr(req.QuantityApproved)
	cp.ToLocationID = clonePtr(req.ToLocationID)
	cp.DecidedAt = clonePtr(req.DecidedAt)
	return &cp
}

func cloneDiscardRequest(req *entity.DiscardRequest) *entity.DiscardRequest {
	cp := *req
	cp.QuantityApproved = clonePtr(req.QuantityApproved)
	cp.DecidedAt = clonePtr(req.DecidedAt)
	return &cp
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func compareCreated(a, b time.Time, idA, idB string) int {
	if c := a.Compare(b); c != 0 {
		return c
	}
	return cmp.Compare(idA, idB)
}

// page aplica offset/limit; limit <= 0 = sin límite.
func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	if offset > 0 {
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
