package entity

import "time"

// StockBalance saldo disponible (derivado) de un par artículo/ubicación.
type StockBalance struct {
	ItemID         string
	LocationID     string
	Quantity       int64
	LastMovementAt time.Time
}
