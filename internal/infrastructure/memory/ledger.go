package memory

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo ledger en memoria.
type LedgerRepo struct {
	session
}

// Append toma el candado del par si aún no lo tiene y agrega el asiento a la transacción.
func (r *LedgerRepo) Append(ctx context.Context, e *entity.LedgerEntry) (int64, error) {
	var id int64
	err := r.write(func(tx *Tx) error {
		k := pairKey{e.ItemID, e.LocationID}
		if err := tx.lock(ctx, balanceKey(k)); err != nil {
			return err
		}
		if tx.balance(k)+e.Delta < 0 {
			return fmt.Errorf("%w: saldo negativo en (%s, %s)", domain.ErrIntegrity, e.ItemID, e.LocationID)
		}
		id = r.s.nextEntryID.Add(1)
		cp := *e
		cp.ID = id
		tx.entries = append(tx.entries, &cp)
		tx.deltas[k] += e.Delta
		if e.OccurredAt.After(tx.lastMove[k]) {
			tx.lastMove[k] = e.OccurredAt
		}
		return nil
	})
	return id, err
}

// LockBalance toma el candado del par y devuelve el saldo visible para la transacción.
func (r *LedgerRepo) LockBalance(ctx context.Context, itemID, locationID string) (int64, error) {
	var qty int64
	err := r.write(func(tx *Tx) error {
		k := pairKey{itemID, locationID}
		if err := tx.lock(ctx, balanceKey(k)); err != nil {
			return err
		}
		qty = tx.balance(k)
		return nil
	})
	return qty, err
}

// Balance saldo confirmado (más lo pendiente de la propia transacción, si hay).
func (r *LedgerRepo) Balance(_ context.Context, itemID, locationID string) (int64, error) {
	k := pairKey{itemID, locationID}
	if r.tx != nil {
		return r.tx.balance(k), nil
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.committedBalance(k), nil
}

// EntriesFor asientos confirmados del par en orden cronológico.
func (r *LedgerRepo) EntriesFor(_ context.Context, itemID, locationID string) iter.Seq2[*entity.LedgerEntry, error] {
	return func(yield func(*entity.LedgerEntry, error) bool) {
		list := r.entries(func(e *entity.LedgerEntry) bool {
			return e.ItemID == itemID && e.LocationID == locationID
		})
		slices.SortStableFunc(list, func(a, b *entity.LedgerEntry) int {
			if c := a.OccurredAt.Compare(b.OccurredAt); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
		for _, e := range list {
			if !yield(e, nil) {
				return
			}
		}
	}
}

// EntriesForRequest asientos confirmados de una solicitud.
func (r *LedgerRepo) EntriesForRequest(_ context.Context, requestID string) ([]*entity.LedgerEntry, error) {
	return r.entries(func(e *entity.LedgerEntry) bool {
		return e.RelatedRequestID != nil && *e.RelatedRequestID == requestID
	}), nil
}

// LocationsWithStock saldos > 0 del artículo ordenados por ubicación.
func (r *LedgerRepo) LocationsWithStock(_ context.Context, itemID string) iter.Seq2[entity.StockBalance, error] {
	return r.balances(
		func(b entity.StockBalance) bool { return b.ItemID == itemID && b.Quantity > 0 },
		func(a, b entity.StockBalance) int { return cmp.Compare(a.LocationID, b.LocationID) },
	)
}

// TotalAvailable suma de saldos confirmados del artículo.
func (r *LedgerRepo) TotalAvailable(_ context.Context, itemID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var total int64
	for k, b := range r.s.balances {
		if k.item == itemID {
			total += b.Quantity
		}
	}
	return total, nil
}

// IdleBalances pares con saldo > 0 y último movimiento <= cutoff.
func (r *LedgerRepo) IdleBalances(_ context.Context, cutoff time.Time) iter.Seq2[entity.StockBalance, error] {
	return r.balances(
		func(b entity.StockBalance) bool { return b.Quantity > 0 && !b.LastMovementAt.After(cutoff) },
		func(a, b entity.StockBalance) int {
			if c := a.LastMovementAt.Compare(b.LastMovementAt); c != 0 {
				return c
			}
			if c := cmp.Compare(a.ItemID, b.ItemID); c != 0 {
				return c
			}
			return cmp.Compare(a.LocationID, b.LocationID)
		},
	)
}

// RebuildBalances recalcula los saldos plegando todos los asientos. Si algún par suma
// negativo no se modifica nada y se devuelve ErrIntegrity.
func (r *LedgerRepo) RebuildBalances(_ context.Context) (int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	rebuilt := make(map[pairKey]*entity.StockBalance)
	for _, e := range s.entries {
		k := pairKey{e.ItemID, e.LocationID}
		b, ok := rebuilt[k]
		if !ok {
			b = &entity.StockBalance{ItemID: e.ItemID, LocationID: e.LocationID}
			rebuilt[k] = b
		}
		b.Quantity += e.Delta
		if e.OccurredAt.After(b.LastMovementAt) {
			b.LastMovementAt = e.OccurredAt
		}
	}
	for k, b := range rebuilt {
		if b.Quantity < 0 {
			return 0, fmt.Errorf("%w: saldo reconstruido negativo en (%s, %s)", domain.ErrIntegrity, k.item, k.location)
		}
	}
	s.balances = rebuilt
	return len(rebuilt), nil
}

// entries copia bajo lectura los asientos que cumplen keep.
func (r *LedgerRepo) entries(keep func(*entity.LedgerEntry) bool) []*entity.LedgerEntry {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.LedgerEntry
	for _, e := range r.s.entries {
		if keep(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out
}

// balances toma una instantánea ordenada; el iterador no retiene el lock mientras el caller procesa.
func (r *LedgerRepo) balances(keep func(entity.StockBalance) bool, order func(a, b entity.StockBalance) int) iter.Seq2[entity.StockBalance, error] {
	return func(yield func(entity.StockBalance, error) bool) {
		r.s.mu.RLock()
		var list []entity.StockBalance
		for _, b := range r.s.balances {
			if keep(*b) {
				list = append(list, *b)
			}
		}
		r.s.mu.RUnlock()
		slices.SortFunc(list, order)
		for _, b := range list {
			if !yield(b, nil) {
				return
			}
		}
	}
}
