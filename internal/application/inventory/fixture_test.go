package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/memory"
)

const (
	itemX    = "item-x"
	lab1     = "loc-lab1"
	mainLoc  = "loc-main"
	actor    = "user-1"
	approver = "user-approver"
)

var baseTime = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

// fakeClock reloj manual compartido por ejecutor y escáner.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// countingMetrics registra lo que el motor reporta.
type countingMetrics struct {
	mu        sync.Mutex
	decided   map[string]int
	entries   map[string]int
	contended int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{decided: map[string]int{}, entries: map[string]int{}}
}

func (m *countingMetrics) RequestDecided(kind, outcome string) {
	m.mu.Lock()
	m.decided[kind+"/"+outcome]++
	m.mu.Unlock()
}

func (m *countingMetrics) EntriesAppended(kind string, n int) {
	m.mu.Lock()
	m.entries[kind] += n
	m.mu.Unlock()
}

func (m *countingMetrics) LockContention() {
	m.mu.Lock()
	m.contended++
	m.mu.Unlock()
}

func (m *countingMetrics) Decided(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.decided[key]
}

type fixture struct {
	store     *memory.Store
	clock     *fakeClock
	metrics   *countingMetrics
	executor  *inventory.MovementExecutor
	requests  *inventory.RequestUseCase
	projector *inventory.ProjectorUseCase
	deadStock *inventory.DeadStockUseCase
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, memory.Options{}, inventory.DefaultRetryPolicy())
}

func newFixtureWith(t *testing.T, opts memory.Options, retry inventory.RetryPolicy) *fixture {
	t.Helper()
	store := memory.New(opts)
	clock := &fakeClock{now: baseTime}
	metrics := newCountingMetrics()

	executor := inventory.NewMovementExecutor(store, store.Items(), store.Locations(), inventory.ExecutorConfig{
		Metrics: metrics,
		Retry:   retry,
		Clock:   clock.Now,
	})
	f := &fixture{
		store:     store,
		clock:     clock,
		metrics:   metrics,
		executor:  executor,
		requests:  inventory.NewRequestUseCase(store.StockRequests(), store.DiscardRequests(), executor),
		projector: inventory.NewProjectorUseCase(store.Ledger(), nil),
		deadStock: inventory.NewDeadStockUseCase(store.Ledger(), store.Items(), 90, clock.Now),
	}

	ctx := context.Background()
	require.NoError(t, store.Items().Create(ctx, &entity.Item{
		ID: itemX, Name: "Pipeta 10ml", UnitPrice: decimal.RequireFromString("2.50"), CreatedAt: baseTime,
	}))
	for _, id := range []string{lab1, mainLoc} {
		require.NoError(t, store.Locations().Create(ctx, &entity.Location{ID: id, Name: id, CreatedAt: baseTime}))
	}
	return f
}

func (f *fixture) receive(t *testing.T, locationID string, qty int64) {
	t.Helper()
	_, err := f.executor.Receive(context.Background(), inventory.ReceiptInput{
		ItemID: itemX, LocationID: locationID, Quantity: qty, ActorID: actor, Reference: "OC-1",
	})
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, locationID string) int64 {
	t.Helper()
	qty, err := f.projector.Balance(context.Background(), itemX, locationID)
	require.NoError(t, err)
	return qty
}

func (f *fixture) transfer(t *testing.T, qty int64) *entity.StockRequest {
	t.Helper()
	to := mainLoc
	req, err := f.requests.CreateStockRequest(context.Background(), inventory.CreateStockRequestInput{
		ItemID: itemX, Quantity: qty, RequestedBy: actor, FromLocationID: lab1, ToLocationID: &to,
	})
	require.NoError(t, err)
	return req
}
