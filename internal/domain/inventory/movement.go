package inventory

import (
	"sort"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// Leg es una pata de un movimiento: un delta sobre un par artículo/ubicación.
type Leg struct {
	ItemID     string
	LocationID string
	Kind       string
	Delta      int64
}

// Movement es el plan que el ejecutor confirma de forma atómica.
type Movement struct {
	RequestID *string
	ActorID   string
	Reference string
	Legs      []Leg
}

// Pair identifica el saldo de un artículo en una ubicación.
type Pair struct {
	ItemID     string
	LocationID string
}

// TransferMovement construye el plan de una solicitud aprobada por qty unidades.
// Con destino: salida en origen y entrada en destino. Sin destino: requisición (solo salida).
func TransferMovement(req *entity.StockRequest, actorID string, qty int64) Movement {
	id := req.ID
	m := Movement{RequestID: &id, ActorID: actorID}
	if req.ToLocationID == nil {
		m.Legs = []Leg{{ItemID: req.ItemID, LocationID: req.FromLocationID, Kind: entity.EntryKindIssue, Delta: -qty}}
		return m
	}
	m.Legs = []Leg{
		{ItemID: req.ItemID, LocationID: req.FromLocationID, Kind: entity.EntryKindTransferOut, Delta: -qty},
		{ItemID: req.ItemID, LocationID: *req.ToLocationID, Kind: entity.EntryKindTransferIn, Delta: qty},
	}
	return m
}

// DiscardMovement construye el plan de una baja aprobada.
func DiscardMovement(req *entity.DiscardRequest, actorID string, qty int64) Movement {
	id := req.ID
	return Movement{
		RequestID: &id,
		ActorID:   actorID,
		Reference: req.Reason,
		Legs:      []Leg{{ItemID: req.ItemID, LocationID: req.LocationID, Kind: entity.EntryKindDiscard, Delta: -qty}},
	}
}

// ReceiptMovement construye el plan de una recepción de compra (sin ubicación origen).
func ReceiptMovement(itemID, locationID, actorID, reference string, qty int64) Movement {
	return Movement{
		ActorID:   actorID,
		Reference: reference,
		Legs:      []Leg{{ItemID: itemID, LocationID: locationID, Kind: entity.EntryKindReceipt, Delta: qty}},
	}
}

// LockOrder devuelve los pares del movimiento sin duplicados y en orden global
// (ubicación ascendente, luego artículo) para evitar interbloqueos.
func (m Movement) LockOrder() []Pair {
	seen := make(map[Pair]struct{}, len(m.Legs))
	pairs := make([]Pair, 0, len(m.Legs))
	for _, l := range m.Legs {
		p := Pair{ItemID: l.ItemID, LocationID: l.LocationID}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].LocationID != pairs[j].LocationID {
			return pairs[i].LocationID < pairs[j].LocationID
		}
		return pairs[i].ItemID < pairs[j].ItemID
	})
	return pairs
}

// Debits suma las salidas por par.
func (m Movement) Debits() map[Pair]int64 {
	out := make(map[Pair]int64)
	for _, l := range m.Legs {
		if l.Delta < 0 {
			out[Pair{ItemID: l.ItemID, LocationID: l.LocationID}] += -l.Delta
		}
	}
	return out
}
