package entity

import "time"

// RequestStatus estado de una solicitud aprobable.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusApproved RequestStatus = "APPROVED"
	RequestStatusRejected RequestStatus = "REJECTED"
)

// IsTerminal indica si el estado ya no admite transiciones.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected
}

// StockRequest solicitud de traslado entre ubicaciones. ToLocationID nil = requisición pura
// (el stock sale de FromLocationID y se entrega al solicitante).
type StockRequest struct {
	ID                string
	ItemID            string
	QuantityRequested int64
	QuantityApproved  *int64
	RequestedBy       string
	FromLocationID    string
	ToLocationID      *string
	Status            RequestStatus
	Notes             string
	DecidedBy         string
	DecisionReason    string
	CreatedAt         time.Time
	DecidedAt         *time.Time
}
