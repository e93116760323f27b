package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateItemRequest entrada para crear un artículo.
type CreateItemRequest struct {
	Name       string          `json:"name" validate:"required,min=1,max=200"`
	CategoryID string          `json:"category_id"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

// UpdateItemRequest edición de metadatos administrativos.
type UpdateItemRequest struct {
	Name       *string          `json:"name" validate:"omitempty,min=1,max=200"`
	CategoryID *string          `json:"category_id"`
	UnitPrice  *decimal.Decimal `json:"unit_price"`
}

// ItemResponse salida de un artículo.
type ItemResponse struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	CategoryID string          `json:"category_id"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ItemListResponse lista paginada de artículos.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}
