package dto

import "time"

// CreateStockRequestRequest body para POST /api/stock-requests.
type CreateStockRequestRequest struct {
	ItemID         string  `json:"item_id"`
	Quantity       int64   `json:"quantity"`
	FromLocationID string  `json:"from_location_id"`
	ToLocationID   *string `json:"to_location_id,omitempty"` // vacío = requisición
	Notes          string  `json:"notes,omitempty"`
}

// CreateDiscardRequestRequest body para POST /api/discard-requests.
type CreateDiscardRequestRequest struct {
	ItemID     string `json:"item_id"`
	LocationID string `json:"location_id"`
	Quantity   int64  `json:"quantity"`
	Reason     string `json:"reason"` // DAMAGED | EXPIRED | OBSOLETE | OTHER
	Notes      string `json:"notes,omitempty"`
}

// ModifyRequestRequest body para PATCH de cantidad candidata.
type ModifyRequestRequest struct {
	Quantity int64 `json:"quantity"`
}

// DecisionRequest body para POST /:id/decision.
type DecisionRequest struct {
	Outcome          string `json:"outcome"` // APPROVE | REJECT
	ApprovedQuantity *int64 `json:"approved_quantity,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

// StockRequestResponse salida de una solicitud de traslado.
type StockRequestResponse struct {
	ID                string     `json:"id"`
	ItemID            string     `json:"item_id"`
	QuantityRequested int64      `json:"quantity_requested"`
	QuantityApproved  *int64     `json:"quantity_approved"`
	RequestedBy       string     `json:"requested_by"`
	FromLocationID    string     `json:"from_location_id"`
	ToLocationID      *string    `json:"to_location_id"`
	Status            string     `json:"status"`
	Notes             string     `json:"notes,omitempty"`
	DecidedBy         string     `json:"decided_by,omitempty"`
	DecisionReason    string     `json:"decision_reason,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	DecidedAt         *time.Time `json:"decided_at"`
}

// DiscardRequestResponse salida de una solicitud de baja.
type DiscardRequestResponse struct {
	ID               string     `json:"id"`
	ItemID           string     `json:"item_id"`
	LocationID       string     `json:"location_id"`
	Quantity         int64      `json:"quantity"`
	QuantityApproved *int64     `json:"quantity_approved"`
	Reason           string     `json:"reason"`
	RequestedBy      string     `json:"requested_by"`
	Status           string     `json:"status"`
	Notes            string     `json:"notes,omitempty"`
	DecidedBy        string     `json:"decided_by,omitempty"`
	DecisionReason   string     `json:"decision_reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	DecidedAt        *time.Time `json:"decided_at"`
}

// StockRequestListResponse lista paginada de traslados.
type StockRequestListResponse struct {
	Items []StockRequestResponse `json:"items"`
	Page  PageResponse           `json:"page"`
}

// DiscardRequestListResponse lista paginada de bajas.
type DiscardRequestListResponse struct {
	Items []DiscardRequestResponse `json:"items"`
	Page  PageResponse             `json:"page"`
}
