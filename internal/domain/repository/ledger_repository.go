package repository

import (
	"context"
	"iter"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// LedgerRepository es el puerto del ledger append-only, única fuente de verdad de los saldos.
// Append es la única primitiva de escritura.
type LedgerRepository interface {
	// Append inserta el asiento y actualiza el saldo del par en el mismo paso atómico.
	// Devuelve domain.ErrIntegrity si el saldo resultante fuera negativo.
	Append(ctx context.Context, entry *entity.LedgerEntry) (int64, error)
	// LockBalance entra en la sección de escritura del par (SELECT FOR UPDATE) y devuelve el saldo bloqueado.
	LockBalance(ctx context.Context, itemID, locationID string) (int64, error)
	Balance(ctx context.Context, itemID, locationID string) (int64, error)
	// EntriesFor produce los asientos del par ordenados por occurred_at; la consulta se ejecuta al iterar.
	EntriesFor(ctx context.Context, itemID, locationID string) iter.Seq2[*entity.LedgerEntry, error]
	EntriesForRequest(ctx context.Context, requestID string) ([]*entity.LedgerEntry, error)
	LocationsWithStock(ctx context.Context, itemID string) iter.Seq2[entity.StockBalance, error]
	TotalAvailable(ctx context.Context, itemID string) (int64, error)
	// IdleBalances produce los pares con saldo > 0 cuyo último movimiento es <= cutoff.
	IdleBalances(ctx context.Context, cutoff time.Time) iter.Seq2[entity.StockBalance, error]
	// RebuildBalances recalcula todos los saldos desde los asientos. Devuelve los pares reconstruidos.
	RebuildBalances(ctx context.Context) (int, error)
}
