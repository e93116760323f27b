package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptRequest body para POST /api/procurements/receipts.
type ReceiptRequest struct {
	ItemID     string `json:"item_id"`
	LocationID string `json:"location_id"`
	Quantity   int64  `json:"quantity"`
	Reference  string `json:"reference,omitempty"` // número de orden de compra
}

// LedgerEntryResponse asiento del ledger.
type LedgerEntryResponse struct {
	ID               int64     `json:"id"`
	TransactionID    string    `json:"transaction_id"`
	ItemID           string    `json:"item_id"`
	LocationID       string    `json:"location_id"`
	Kind             string    `json:"kind"`
	Delta            int64     `json:"delta"`
	RelatedRequestID *string   `json:"related_request_id"`
	Reference        string    `json:"reference,omitempty"`
	ActorID          string    `json:"actor_id"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// BalanceResponse saldo de un par.
type BalanceResponse struct {
	ItemID     string `json:"item_id"`
	LocationID string `json:"location_id"`
	Available  int64  `json:"available_qty"`
	Snapshot   bool   `json:"snapshot"`
}

// LocationStockDTO saldo positivo de un artículo en una ubicación.
type LocationStockDTO struct {
	LocationID     string    `json:"location_id"`
	Available      int64     `json:"available_qty"`
	LastMovementAt time.Time `json:"last_movement_at"`
}

// ItemStockResponse ubicaciones con stock y total disponible de un artículo.
type ItemStockResponse struct {
	ItemID         string             `json:"item_id"`
	TotalAvailable int64              `json:"total_available"`
	Locations      []LocationStockDTO `json:"locations"`
}

// DeadStockDTO fila del reporte de stock muerto.
type DeadStockDTO struct {
	ItemID         string          `json:"item_id"`
	ItemName       string          `json:"item_name"`
	LocationID     string          `json:"location_id"`
	Available      int64           `json:"available_qty"`
	LastMovementAt time.Time       `json:"last_movement_at"`
	DaysIdle       int             `json:"days_idle"`
	IdleValue      decimal.Decimal `json:"idle_value"`
}

// DeadStockResponse reporte de stock muerto.
type DeadStockResponse struct {
	ThresholdDays int            `json:"threshold_days"`
	Total         int            `json:"total"`
	Rows          []DeadStockDTO `json:"rows"`
}
