package repository

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// StockRequestRepository puerto de persistencia para solicitudes de traslado.
// GetByID/GetForUpdate devuelven (nil, nil) si no existe.
type StockRequestRepository interface {
	Create(ctx context.Context, req *entity.StockRequest) error
	GetByID(ctx context.Context, id string) (*entity.StockRequest, error)
	// GetForUpdate bloquea la fila de la solicitud hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.StockRequest, error)
	Update(ctx context.Context, req *entity.StockRequest) error
	// ListByStatus lista por estado (vacío = todos), más antiguas primero.
	ListByStatus(ctx context.Context, status entity.RequestStatus, limit, offset int) ([]*entity.StockRequest, error)
}
