package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// ExecutorConfig colaboradores opcionales del ejecutor. Los campos nil usan implementaciones nulas.
type ExecutorConfig struct {
	Cache   BalanceCache
	Metrics Metrics
	Retry   RetryPolicy
	Clock   Clock
	Logger  *logger.Logger
}

// MovementExecutor es el único camino que escribe en el ledger. Aplica un movimiento
// aprobado como una sola transacción: bloquea los pares en orden global, verifica
// cada salida contra el saldo bloqueado y agrega todas las patas, o nada.
type MovementExecutor struct {
	txRunner     TxRunner
	itemRepo     repository.ItemRepository
	locationRepo repository.LocationRepository
	cache        BalanceCache
	metrics      Metrics
	retry        RetryPolicy
	now          Clock
	log          *logger.Logger
}

// NewMovementExecutor construye el ejecutor.
func NewMovementExecutor(
	txRunner TxRunner,
	itemRepo repository.ItemRepository,
	locationRepo repository.LocationRepository,
	cfg ExecutorConfig,
) *MovementExecutor {
	e := &MovementExecutor{
		txRunner:     txRunner,
		itemRepo:     itemRepo,
		locationRepo: locationRepo,
		cache:        cfg.Cache,
		metrics:      cfg.Metrics,
		retry:        cfg.Retry,
		now:          cfg.Clock,
		log:          cfg.Logger,
	}
	if e.cache == nil {
		e.cache = nopCache{}
	}
	if e.metrics == nil {
		e.metrics = nopMetrics{}
	}
	if e.retry.Attempts == 0 {
		e.retry = DefaultRetryPolicy()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.log == nil {
		e.log = logger.Nop()
	}
	return e
}

// ReceiptInput recepción de compra informada por el módulo de adquisiciones.
type ReceiptInput struct {
	ItemID     string
	LocationID string
	Quantity   int64
	ActorID    string
	Reference  string
}

// Execute aplica el movimiento usando el repositorio del ledger de la transacción del caller.
// Devuelve ErrInsufficientStock sin escribir nada si alguna salida supera el saldo bloqueado.
func (e *MovementExecutor) Execute(ctx context.Context, ledger repository.LedgerRepository, m inventory.Movement) ([]*entity.LedgerEntry, error) {
	if len(m.Legs) == 0 {
		return nil, domain.Validation("movimiento sin asientos")
	}
	debits := m.Debits()
	for _, p := range m.LockOrder() {
		balance, err := ledger.LockBalance(ctx, p.ItemID, p.LocationID)
		if err != nil {
			return nil, err
		}
		if need := debits[p]; need > balance {
			return nil, fmt.Errorf("%w: disponible %d, requerido %d (artículo %s, ubicación %s)",
				domain.ErrInsufficientStock, balance, need, p.ItemID, p.LocationID)
		}
	}

	txID := uuid.New().String()
	now := e.now()
	entries := make([]*entity.LedgerEntry, 0, len(m.Legs))
	for _, leg := range m.Legs {
		entry := &entity.LedgerEntry{
			TransactionID:    txID,
			ItemID:           leg.ItemID,
			LocationID:       leg.LocationID,
			Kind:             leg.Kind,
			Delta:            leg.Delta,
			RelatedRequestID: m.RequestID,
			Reference:        m.Reference,
			ActorID:          m.ActorID,
			OccurredAt:       now,
		}
		id, err := ledger.Append(ctx, entry)
		if err != nil {
			if errors.Is(err, domain.ErrIntegrity) {
				e.log.Error().Err(err).
					Str("item_id", leg.ItemID).
					Str("location_id", leg.LocationID).
					Int64("delta", leg.Delta).
					Msg("el ledger rechazó un asiento que dejaría saldo negativo")
			}
			return nil, err
		}
		entry.ID = id
		entries = append(entries, entry)
	}
	return entries, nil
}

// Receive registra una recepción de compra: un asiento positivo sin ubicación origen.
func (e *MovementExecutor) Receive(ctx context.Context, in ReceiptInput) ([]*entity.LedgerEntry, error) {
	if in.ItemID == "" || in.LocationID == "" {
		return nil, domain.Validation("item_id y location_id son requeridos")
	}
	if in.Quantity <= 0 {
		return nil, domain.Validation("la cantidad debe ser mayor que cero")
	}
	if in.ActorID == "" {
		return nil, domain.Validation("actor requerido")
	}
	if err := e.ensureItem(ctx, in.ItemID); err != nil {
		return nil, err
	}
	if err := e.ensureLocation(ctx, in.LocationID); err != nil {
		return nil, err
	}

	m := inventory.ReceiptMovement(in.ItemID, in.LocationID, in.ActorID, in.Reference, in.Quantity)
	var entries []*entity.LedgerEntry
	err := e.retry.do(ctx, e.metrics, func(ctx context.Context) error {
		return e.txRunner.Run(ctx, func(repos Repos) error {
			var err error
			entries, err = e.Execute(ctx, repos.Ledger, m)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	e.committed(ctx, "receipt", m, entries)
	return entries, nil
}

// committed se llama tras el Commit: invalida el caché de pantallas y cuenta asientos.
// El movimiento ya es durable; cancelar la petición no debe saltarse la invalidación.
func (e *MovementExecutor) committed(ctx context.Context, kind string, m inventory.Movement, entries []*entity.LedgerEntry) {
	e.cache.Invalidate(context.WithoutCancel(ctx), m.LockOrder())
	e.metrics.EntriesAppended(kind, len(entries))
	e.log.Debug().
		Str("kind", kind).
		Int("entries", len(entries)).
		Msg("movimiento confirmado")
}

func (e *MovementExecutor) ensureItem(ctx context.Context, id string) error {
	item, err := e.itemRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("%w: artículo %s", domain.ErrNotFound, id)
	}
	return nil
}

func (e *MovementExecutor) ensureLocation(ctx context.Context, id string) error {
	loc, err := e.locationRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if loc == nil {
		return fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, id)
	}
	return nil
}
