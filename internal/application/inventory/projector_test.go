package inventory_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	domaininv "github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/memory"
)

// Entre dos commits, Balance, Snapshot y Replay devuelven siempre lo mismo.
func TestProjector_LecturasRepetidasSinDeriva(t *testing.T) {
	store := memory.New(memory.Options{})
	ctx := context.Background()
	require.NoError(t, store.Items().Create(ctx, &entity.Item{ID: itemX, Name: "x"}))
	require.NoError(t, store.Locations().Create(ctx, &entity.Location{ID: lab1, Name: lab1}))
	require.NoError(t, store.Locations().Create(ctx, &entity.Location{ID: mainLoc, Name: mainLoc}))
	cache := &mapCache{values: map[domaininv.Pair]int64{}}
	executor := inventory.NewMovementExecutor(store, store.Items(), store.Locations(), inventory.ExecutorConfig{Cache: cache})
	requests := inventory.NewRequestUseCase(store.StockRequests(), store.DiscardRequests(), executor)
	projector := inventory.NewProjectorUseCase(store.Ledger(), cache)

	assertStable := func(step string, want map[string]int64) {
		t.Helper()
		for loc, qty := range want {
			for i := 0; i < 3; i++ {
				got, err := projector.Balance(ctx, itemX, loc)
				require.NoError(t, err)
				assert.Equal(t, qty, got, "%s: Balance(%s) lectura %d", step, loc, i)

				snap, err := projector.Snapshot(ctx, itemX, loc)
				require.NoError(t, err)
				assert.Equal(t, qty, snap, "%s: Snapshot(%s) lectura %d", step, loc, i)
			}
			replayed, err := projector.Replay(ctx, itemX, loc)
			require.NoError(t, err)
			assert.Equal(t, qty, replayed, "%s: Replay(%s)", step, loc)
		}
	}

	assertStable("vacío", map[string]int64{lab1: 0, mainLoc: 0})

	_, err := executor.Receive(ctx, inventory.ReceiptInput{ItemID: itemX, LocationID: lab1, Quantity: 10, ActorID: actor})
	require.NoError(t, err)
	assertStable("recepción", map[string]int64{lab1: 10, mainLoc: 0})

	to := mainLoc
	req, err := requests.CreateStockRequest(ctx, inventory.CreateStockRequestInput{
		ItemID: itemX, Quantity: 4, RequestedBy: actor, FromLocationID: lab1, ToLocationID: &to,
	})
	require.NoError(t, err)
	assertStable("solicitud pendiente", map[string]int64{lab1: 10, mainLoc: 0})

	_, err = requests.DecideStockRequest(ctx, approve(req.ID))
	require.NoError(t, err)
	assertStable("traslado aprobado", map[string]int64{lab1: 6, mainLoc: 4})

	rejected, err := requests.CreateStockRequest(ctx, inventory.CreateStockRequestInput{
		ItemID: itemX, Quantity: 2, RequestedBy: actor, FromLocationID: lab1, ToLocationID: &to,
	})
	require.NoError(t, err)
	_, err = requests.DecideStockRequest(ctx, inventory.DecideInput{RequestID: rejected.ID, ActorID: approver, Outcome: domaininv.OutcomeReject})
	require.NoError(t, err)
	assertStable("rechazo", map[string]int64{lab1: 6, mainLoc: 4})
}

// Un lector concurrente nunca observa una sola pata de un traslado: el total del artículo
// y la suma de ubicaciones con stock, leídos cada uno en una sola instantánea confirmada,
// se conservan mientras se aprueban traslados.
func TestProjector_LectorConcurrenteNoVeTrasladoAMedias(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const total = 20
	f.receive(t, lab1, total)

	pending := make([]*entity.StockRequest, 10)
	for i := range pending {
		pending[i] = f.transfer(t, 1)
	}

	done := make(chan struct{})
	var reader errgroup.Group
	reader.Go(func() error {
		for {
			select {
			case <-done:
				return nil
			default:
			}
			got, err := f.projector.TotalAvailable(ctx, itemX)
			if err != nil {
				return err
			}
			if got != total {
				return fmt.Errorf("TotalAvailable = %d durante un traslado", got)
			}
			var sum int64
			for b, err := range f.projector.LocationsWithStock(ctx, itemX) {
				if err != nil {
					return err
				}
				sum += b.Quantity
			}
			if sum != total {
				return fmt.Errorf("suma de ubicaciones = %d durante un traslado", sum)
			}
		}
	})

	var approvals errgroup.Group
	for _, req := range pending {
		approvals.Go(func() error {
			_, err := f.requests.DecideStockRequest(ctx, approve(req.ID))
			return err
		})
	}
	require.NoError(t, approvals.Wait())
	close(done)
	require.NoError(t, reader.Wait())

	assert.EqualValues(t, 10, f.balance(t, lab1))
	assert.EqualValues(t, 10, f.balance(t, mainLoc))
}

// racingCache ejecuta onSet antes de guardar: simula un movimiento confirmado entre la
// lectura del saldo y el Set del proyector.
type racingCache struct {
	mapCache
	onSet func()
}

func (c *racingCache) Set(ctx context.Context, item, loc string, qty int64) {
	if c.onSet != nil {
		hook := c.onSet
		c.onSet = nil
		hook()
	}
	c.mapCache.Set(ctx, item, loc, qty)
}

func TestProjector_SnapshotNoConservaSaldoAnteriorAlCommit(t *testing.T) {
	store := memory.New(memory.Options{})
	ctx := context.Background()
	require.NoError(t, store.Items().Create(ctx, &entity.Item{ID: itemX, Name: "x"}))
	require.NoError(t, store.Locations().Create(ctx, &entity.Location{ID: lab1, Name: lab1}))
	cache := &racingCache{mapCache: mapCache{values: map[domaininv.Pair]int64{}}}
	executor := inventory.NewMovementExecutor(store, store.Items(), store.Locations(), inventory.ExecutorConfig{Cache: cache})
	projector := inventory.NewProjectorUseCase(store.Ledger(), cache)

	_, err := executor.Receive(ctx, inventory.ReceiptInput{ItemID: itemX, LocationID: lab1, Quantity: 3, ActorID: actor})
	require.NoError(t, err)

	cache.onSet = func() {
		_, err := executor.Receive(ctx, inventory.ReceiptInput{ItemID: itemX, LocationID: lab1, Quantity: 2, ActorID: actor})
		require.NoError(t, err)
	}
	snap, err := projector.Snapshot(ctx, itemX, lab1)
	require.NoError(t, err)
	assert.EqualValues(t, 5, snap)

	_, cached := cache.Get(ctx, itemX, lab1)
	assert.False(t, cached, "el 3 guardado tras el commit debe invalidarse")
	snap, err = projector.Snapshot(ctx, itemX, lab1)
	require.NoError(t, err)
	assert.EqualValues(t, 5, snap)
}

// ctxCache registra si el contexto recibido en Invalidate podía cancelarse.
type ctxCache struct {
	detached int
	cancelable       int
}

func (c *ctxCache) Get(context.Context, string, string) (int64, bool) { return 0, false }
func (c *ctxCache) Set(context.Context, string, string, int64)       {}
func (c *ctxCache) Invalidate(ctx context.Context, _ []domaininv.Pair) {
	if ctx.Done() != nil {
		c.cancelable++
		return
	}
	c.detached++
}

func TestExecutor_InvalidacionSobreviveACancelarLaPeticion(t *testing.T) {
	store := memory.New(memory.Options{})
	require.NoError(t, store.Items().Create(context.Background(), &entity.Item{ID: itemX, Name: "x"}))
	require.NoError(t, store.Locations().Create(context.Background(), &entity.Location{ID: lab1, Name: lab1}))
	cache := &ctxCache{}
	executor := inventory.NewMovementExecutor(store, store.Items(), store.Locations(), inventory.ExecutorConfig{Cache: cache})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := executor.Receive(ctx, inventory.ReceiptInput{ItemID: itemX, LocationID: lab1, Quantity: 1, ActorID: actor})
	require.NoError(t, err)

	assert.Equal(t, 1, cache.detached)
	assert.Zero(t, cache.cancelable, "la invalidación no debe heredar la cancelación de la petición")
}
