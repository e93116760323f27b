package inventory

import (
	"context"
	"iter"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// ProjectorUseCase deriva saldos desde el ledger. Balance lee el contador mantenido en la
// misma transacción que cada asiento, así que nunca ve un asiento en vuelo.
type ProjectorUseCase struct {
	ledger repository.LedgerRepository
	cache  BalanceCache
}

// NewProjectorUseCase construye el proyector. cache puede ser nil.
func NewProjectorUseCase(ledger repository.LedgerRepository, cache BalanceCache) *ProjectorUseCase {
	if cache == nil {
		cache = nopCache{}
	}
	return &ProjectorUseCase{ledger: ledger, cache: cache}
}

// Balance saldo disponible del par (>= 0).
func (uc *ProjectorUseCase) Balance(ctx context.Context, itemID, locationID string) (int64, error) {
	if itemID == "" || locationID == "" {
		return 0, domain.Validation("item_id y location_id son requeridos")
	}
	return uc.ledger.Balance(ctx, itemID, locationID)
}

// Snapshot lectura para pantallas a través del caché. No debe usarse para decidir.
// En un fallo de caché guarda el saldo leído y lo vuelve a leer: si un movimiento se
// confirmó entre la lectura y el Set, la entrada se invalida. Un movimiento confirmado
// después de la relectura invalida por su cuenta, así que el caché no conserva un valor
// anterior al último commit.
func (uc *ProjectorUseCase) Snapshot(ctx context.Context, itemID, locationID string) (int64, error) {
	if qty, ok := uc.cache.Get(ctx, itemID, locationID); ok {
		return qty, nil
	}
	qty, err := uc.Balance(ctx, itemID, locationID)
	if err != nil {
		return 0, err
	}
	uc.cache.Set(ctx, itemID, locationID, qty)
	again, err := uc.Balance(ctx, itemID, locationID)
	if err != nil || again != qty {
		uc.cache.Invalidate(context.WithoutCancel(ctx), []inventory.Pair{{ItemID: itemID, LocationID: locationID}})
	}
	if err != nil {
		return 0, err
	}
	return again, nil
}

// LocationsWithStock ubicaciones con saldo > 0 para el artículo (orígenes posibles de un traslado).
func (uc *ProjectorUseCase) LocationsWithStock(ctx context.Context, itemID string) iter.Seq2[entity.StockBalance, error] {
	return uc.ledger.LocationsWithStock(ctx, itemID)
}

// TotalAvailable suma de saldos del artículo en todas las ubicaciones.
func (uc *ProjectorUseCase) TotalAvailable(ctx context.Context, itemID string) (int64, error) {
	if itemID == "" {
		return 0, domain.Validation("item_id es requerido")
	}
	return uc.ledger.TotalAvailable(ctx, itemID)
}

// Entries asientos del par en orden cronológico (lectura para auditoría).
func (uc *ProjectorUseCase) Entries(ctx context.Context, itemID, locationID string) iter.Seq2[*entity.LedgerEntry, error] {
	return uc.ledger.EntriesFor(ctx, itemID, locationID)
}

// Replay recalcula el saldo plegando todos los asientos del par.
func (uc *ProjectorUseCase) Replay(ctx context.Context, itemID, locationID string) (int64, error) {
	return inventory.Fold(uc.ledger.EntriesFor(ctx, itemID, locationID))
}

// Rebuild reconstruye todos los contadores de saldo desde el ledger.
func (uc *ProjectorUseCase) Rebuild(ctx context.Context) (int, error) {
	return uc.ledger.RebuildBalances(ctx)
}
