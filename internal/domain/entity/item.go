package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item representa un artículo inventariable. Una vez referenciado por asientos del ledger
// solo se editan sus metadatos administrativos (nombre, categoría, precio).
type Item struct {
	ID         string
	Name       string
	CategoryID string
	UnitPrice  decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
