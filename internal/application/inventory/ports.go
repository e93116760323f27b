package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// Repos repositorios atados a una misma transacción.
type Repos struct {
	Ledger   repository.LedgerRepository
	Stock    repository.StockRequestRepository
	Discards repository.DiscardRequestRepository
}

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; si no, Commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repos) error) error
}

// BalanceCache guarda lecturas de saldo para pantallas. Nunca respalda una decisión.
type BalanceCache interface {
	Get(ctx context.Context, itemID, locationID string) (int64, bool)
	Set(ctx context.Context, itemID, locationID string, qty int64)
	Invalidate(ctx context.Context, pairs []inventory.Pair)
}

// Metrics contadores del motor (Prometheus en producción).
type Metrics interface {
	RequestDecided(kind, outcome string)
	EntriesAppended(kind string, n int)
	LockContention()
}

// Clock fuente de tiempo inyectable.
type Clock func() time.Time

type nopCache struct{}

func (nopCache) Get(context.Context, string, string) (int64, bool) { return 0, false }
func (nopCache) Set(context.Context, string, string, int64)       {}
func (nopCache) Invalidate(context.Context, []inventory.Pair)     {}

type nopMetrics struct{}

func (nopMetrics) RequestDecided(string, string) {}
func (nopMetrics) EntriesAppended(string, int)   {}
func (nopMetrics) LockContention()               {}
