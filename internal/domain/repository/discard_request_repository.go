package repository

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// DiscardRequestRepository puerto de persistencia para solicitudes de baja.
type DiscardRequestRepository interface {
	Create(ctx context.Context, req *entity.DiscardRequest) error
	GetByID(ctx context.Context, id string) (*entity.DiscardRequest, error)
	GetForUpdate(ctx context.Context, id string) (*entity.DiscardRequest, error)
	Update(ctx context.Context, req *entity.DiscardRequest) error
	ListByStatus(ctx context.Context, status entity.RequestStatus, limit, offset int) ([]*entity.DiscardRequest, error)
}
