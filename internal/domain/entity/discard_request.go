package entity

import "time"

// Motivos de baja.
const (
	DiscardReasonDamaged  = "DAMAGED"
	DiscardReasonExpired  = "EXPIRED"
	DiscardReasonObsolete = "OBSOLETE"
	DiscardReasonOther    = "OTHER"
)

// DiscardRequest solicitud de baja de stock en una ubicación.
type DiscardRequest struct {
	ID               string
	ItemID           string
	LocationID       string
	Quantity         int64
	QuantityApproved *int64
	Reason           string
	RequestedBy      string
	Status           RequestStatus
	Notes            string
	DecidedBy        string
	DecisionReason   string
	CreatedAt        time.Time
	DecidedAt        *time.Time
}
