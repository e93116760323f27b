package inventory_test

import (
	"context"
	"iter"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	domaininv "github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/memory"
)

func collect[T any](t *testing.T, s iter.Seq2[T, error]) []T {
	t.Helper()
	var out []T
	for v, err := range s {
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

func TestReceive_AsientoPositivo(t *testing.T) {
	f := newFixture(t)

	entries, err := f.executor.Receive(context.Background(), inventory.ReceiptInput{
		ItemID: itemX, LocationID: lab1, Quantity: 10, ActorID: actor, Reference: "OC-9",
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.NotZero(t, e.ID)
	assert.Equal(t, entity.EntryKindReceipt, e.Kind)
	assert.EqualValues(t, 10, e.Delta)
	assert.Nil(t, e.RelatedRequestID)
	assert.Equal(t, "OC-9", e.Reference)
	assert.Equal(t, baseTime, e.OccurredAt)
	assert.EqualValues(t, 10, f.balance(t, lab1))
	assert.Equal(t, 1, f.metrics.entries["receipt"])
}

func TestReceive_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.executor.Receive(ctx, inventory.ReceiptInput{ItemID: itemX, LocationID: lab1, Quantity: 0, ActorID: actor})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.executor.Receive(ctx, inventory.ReceiptInput{ItemID: itemX, LocationID: lab1, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.executor.Receive(ctx, inventory.ReceiptInput{ItemID: "nada", LocationID: lab1, Quantity: 1, ActorID: actor})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.executor.Receive(ctx, inventory.ReceiptInput{ItemID: itemX, LocationID: "nada", Quantity: 1, ActorID: actor})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExecute_FallaTodoONada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, lab1, 5)

	// La segunda salida agota el par: ninguna pata debe quedar confirmada.
	m := domaininv.Movement{ActorID: actor, Legs: []domaininv.Leg{
		{ItemID: itemX, LocationID: mainLoc, Kind: entity.EntryKindTransferIn, Delta: 8},
		{ItemID: itemX, LocationID: lab1, Kind: entity.EntryKindTransferOut, Delta: -8},
	}}
	err := f.store.Run(ctx, func(repos inventory.Repos) error {
		_, err := f.executor.Execute(ctx, repos.Ledger, m)
		return err
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.EqualValues(t, 5, f.balance(t, lab1))
	assert.EqualValues(t, 0, f.balance(t, mainLoc))
	assert.Empty(t, collect(t, f.projector.Entries(ctx, itemX, mainLoc)))
}

func TestExecute_MovimientoVacio(t *testing.T) {
	f := newFixture(t)
	_, err := f.executor.Execute(context.Background(), f.store.Ledger(), domaininv.Movement{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// Un par bloqueado por otra transacción agota los reintentos con ErrLockTimeout.
func TestReceive_LockTimeoutSeReintentaYFalla(t *testing.T) {
	f := newFixtureWith(t, memory.Options{LockTimeout: 20 * time.Millisecond},
		inventory.RetryPolicy{Attempts: 2, Delay: 5 * time.Millisecond})
	ctx := context.Background()

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- f.store.Run(ctx, func(repos inventory.Repos) error {
			if _, err := repos.Ledger.LockBalance(ctx, itemX, lab1); err != nil {
				return err
			}
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	_, err := f.executor.Receive(ctx, inventory.ReceiptInput{ItemID: itemX, LocationID: lab1, Quantity: 1, ActorID: actor})
	assert.ErrorIs(t, err, domain.ErrLockTimeout)
	assert.Equal(t, 2, f.metrics.contended, "un intento más un reintento")

	close(release)
	require.NoError(t, <-done)

	// Liberado el candado, la misma operación pasa.
	f.receive(t, lab1, 1)
	assert.EqualValues(t, 1, f.balance(t, lab1))
}

func TestProjector_SaldosYUbicaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, lab1, 10)
	f.receive(t, mainLoc, 3)

	first, err := f.projector.Balance(ctx, itemX, lab1)
	require.NoError(t, err)
	second, err := f.projector.Balance(ctx, itemX, lab1)
	require.NoError(t, err)
	assert.Equal(t, first, second, "sin asientos nuevos no hay deriva")

	total, err := f.projector.TotalAvailable(ctx, itemX)
	require.NoError(t, err)
	assert.EqualValues(t, 13, total)

	locs := collect(t, f.projector.LocationsWithStock(ctx, itemX))
	require.Len(t, locs, 2)
	assert.Equal(t, lab1, locs[0].LocationID)
	assert.Equal(t, mainLoc, locs[1].LocationID)

	_, err = f.projector.Balance(ctx, "", lab1)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.projector.TotalAvailable(ctx, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestProjector_RebuildCoincideConContadores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, lab1, 10)
	req := f.transfer(t, 4)
	_, err := f.requests.DecideStockRequest(ctx, approve(req.ID))
	require.NoError(t, err)

	n, err := f.projector.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.EqualValues(t, 6, f.balance(t, lab1))
	assert.EqualValues(t, 4, f.balance(t, mainLoc))

	entries := collect(t, f.projector.Entries(ctx, itemX, lab1))
	require.Len(t, entries, 2)
	assert.Equal(t, entity.EntryKindReceipt, entries[0].Kind)
	assert.Equal(t, entity.EntryKindTransferOut, entries[1].Kind)
}

type mapCache struct {
	values      map[domaininv.Pair]int64
	invalidated []domaininv.Pair
}

func (c *mapCache) Get(_ context.Context, item, loc string) (int64, bool) {
	v, ok := c.values[domaininv.Pair{ItemID: item, LocationID: loc}]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, item, loc string, qty int64) {
	c.values[domaininv.Pair{ItemID: item, LocationID: loc}] = qty
}

func (c *mapCache) Invalidate(_ context.Context, pairs []domaininv.Pair) {
	for _, p := range pairs {
		delete(c.values, p)
	}
	c.invalidated = append(c.invalidated, pairs...)
}

func TestProjector_SnapshotUsaCacheEInvalidaAlConfirmar(t *testing.T) {
	store := memory.New(memory.Options{})
	ctx := context.Background()
	require.NoError(t, store.Items().Create(ctx, &entity.Item{ID: itemX, Name: "x"}))
	require.NoError(t, store.Locations().Create(ctx, &entity.Location{ID: lab1, Name: lab1}))
	cache := &mapCache{values: map[domaininv.Pair]int64{}}
	executor := inventory.NewMovementExecutor(store, store.Items(), store.Locations(), inventory.ExecutorConfig{Cache: cache})
	projector := inventory.NewProjectorUseCase(store.Ledger(), cache)

	_, err := executor.Receive(ctx, inventory.ReceiptInput{ItemID: itemX, LocationID: lab1, Quantity: 3, ActorID: actor})
	require.NoError(t, err)

	snap, err := projector.Snapshot(ctx, itemX, lab1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, snap)
	assert.EqualValues(t, 3, cache.values[domaininv.Pair{ItemID: itemX, LocationID: lab1}])

	_, err = executor.Receive(ctx, inventory.ReceiptInput{ItemID: itemX, LocationID: lab1, Quantity: 2, ActorID: actor})
	require.NoError(t, err)
	assert.Len(t, cache.invalidated, 2)

	snap, err = projector.Snapshot(ctx, itemX, lab1)
	require.NoError(t, err)
	assert.EqualValues(t, 5, snap)
}

func TestDeadStock_UmbralYValor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, lab1, 4)
	f.clock.Advance(60 * 24 * time.Hour)
	f.receive(t, mainLoc, 2)
	f.clock.Advance(40 * 24 * time.Hour)

	rows := collect(t, f.deadStock.Scan(ctx, 90))
	require.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, lab1, r.LocationID)
	assert.Equal(t, "Pipeta 10ml", r.ItemName)
	assert.EqualValues(t, 4, r.Quantity)
	assert.Equal(t, 100, r.DaysIdle)
	assert.True(t, decimal.RequireFromString("10").Equal(r.IdleValue), "4 x 2.50")

	assert.Len(t, collect(t, f.deadStock.Scan(ctx, 40)), 2)
	assert.Len(t, collect(t, f.deadStock.Scan(ctx, -1)), 1, "umbral negativo usa el de configuración")
}

func TestDeadStock_MovimientoReciente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, lab1, 10)
	f.clock.Advance(100 * 24 * time.Hour)

	req := f.transfer(t, 1)
	_, err := f.requests.DecideStockRequest(ctx, approve(req.ID))
	require.NoError(t, err)

	assert.Empty(t, collect(t, f.deadStock.Scan(ctx, 90)), "el traslado reinicia la inactividad de ambos pares")
}
