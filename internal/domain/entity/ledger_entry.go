package entity

import "time"

// Tipos de asiento del ledger.
const (
	EntryKindReceipt     = "RECEIPT"      // recepción de compra
	EntryKindTransferOut = "TRANSFER_OUT" // salida por traslado
	EntryKindTransferIn  = "TRANSFER_IN"  // entrada por traslado
	EntryKindIssue       = "ISSUE"        // requisición sin destino
	EntryKindDiscard     = "DISCARD"      // baja
)

// LedgerEntry es un asiento inmutable de cantidad para un par (artículo, ubicación).
// Delta positivo = entrada, negativo = salida. Nunca se edita ni se borra.
type LedgerEntry struct {
	ID               int64
	TransactionID    string // comparte valor entre los asientos confirmados juntos
	ItemID           string
	LocationID       string
	Kind             string
	Delta            int64
	RelatedRequestID *string
	Reference        string
	ActorID          string
	OccurredAt       time.Time
}
