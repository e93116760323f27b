package inventory

import (
	"context"
	"iter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// DeadStockRow par artículo/ubicación con saldo positivo y sin movimiento desde hace DaysIdle días.
type DeadStockRow struct {
	ItemID         string
	ItemName       string
	LocationID     string
	Quantity       int64
	LastMovementAt time.Time
	DaysIdle       int
	IdleValue      decimal.Decimal // Quantity * precio unitario
}

// DeadStockUseCase consulta de solo lectura sobre el ledger; segura en paralelo con cualquier escritura.
type DeadStockUseCase struct {
	ledger           repository.LedgerRepository
	itemRepo         repository.ItemRepository
	defaultThreshold int
	now              Clock
}

// NewDeadStockUseCase construye el escáner. defaultThreshold se usa cuando Scan recibe un umbral negativo.
func NewDeadStockUseCase(ledger repository.LedgerRepository, itemRepo repository.ItemRepository, defaultThreshold int, clock Clock) *DeadStockUseCase {
	if clock == nil {
		clock = time.Now
	}
	return &DeadStockUseCase{
		ledger:           ledger,
		itemRepo:         itemRepo,
		defaultThreshold: defaultThreshold,
		now:              clock,
	}
}

// Scan produce los pares con saldo > 0 y days_idle >= thresholdDays.
func (uc *DeadStockUseCase) Scan(ctx context.Context, thresholdDays int) iter.Seq2[DeadStockRow, error] {
	if thresholdDays < 0 {
		thresholdDays = uc.defaultThreshold
	}
	return func(yield func(DeadStockRow, error) bool) {
		now := uc.now()
		items := make(map[string]*entity.Item)
		for b, err := range uc.ledger.IdleBalances(ctx, inventory.IdleCutoff(now, thresholdDays)) {
			if err != nil {
				yield(DeadStockRow{}, err)
				return
			}
			days := inventory.DaysIdle(now, b.LastMovementAt)
			if b.Quantity <= 0 || days < thresholdDays {
				continue
			}
			item, ok := items[b.ItemID]
			if !ok {
				var err error
				item, err = uc.itemRepo.GetByID(ctx, b.ItemID)
				if err != nil {
					yield(DeadStockRow{}, err)
					return
				}
				items[b.ItemID] = item
			}
			row := DeadStockRow{
				ItemID:         b.ItemID,
				LocationID:     b.LocationID,
				Quantity:       b.Quantity,
				LastMovementAt: b.LastMovementAt,
				DaysIdle:       days,
				IdleValue:      decimal.Zero,
			}
			if item != nil {
				row.ItemName = item.Name
				row.IdleValue = item.UnitPrice.Mul(decimal.NewFromInt(b.Quantity))
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}
