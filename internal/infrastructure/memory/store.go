// Package memory implementa los puertos de persistencia en memoria, con la misma disciplina
// de bloqueos que PostgreSQL: un candado por par (y por solicitud) con espera acotada, y
// transacciones que solo publican sus escrituras al confirmar.
package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

var _ inventory.TxRunner = (*Store)(nil)

// DefaultLockTimeout espera máxima por un candado si Options no indica otra.
const DefaultLockTimeout = 2 * time.Second

// Options configuración del store.
type Options struct {
	LockTimeout time.Duration
}

type pairKey struct {
	item     string
	location string
}

// Store estado confirmado. mu protege los mapas; los candados por clave serializan
// transacciones que tocan el mismo par o la misma solicitud.
type Store struct {
	mu        sync.RWMutex
	items     map[string]*entity.Item
	locations map[string]*entity.Location
	entries   []*entity.LedgerEntry
	balances  map[pairKey]*entity.StockBalance
	stock     map[string]*entity.StockRequest
	discards  map[string]*entity.DiscardRequest

	nextEntryID atomic.Int64
	locks       *lockTable
	lockTimeout time.Duration
}

// New crea un store vacío.
func New(opts Options) *Store {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = DefaultLockTimeout
	}
	return &Store{
		items:       make(map[string]*entity.Item),
		locations:   make(map[string]*entity.Location),
		balances:    make(map[pairKey]*entity.StockBalance),
		stock:       make(map[string]*entity.StockRequest),
		discards:    make(map[string]*entity.DiscardRequest),
		locks:       newLockTable(),
		lockTimeout: opts.LockTimeout,
	}
}

// Run ejecuta fn dentro de una transacción: Commit si fn devuelve nil, Rollback si no.
// Un panic dentro de fn también libera los candados antes de propagarse.
func (s *Store) Run(ctx context.Context, fn func(repos inventory.Repos) error) error {
	tx := s.begin()
	defer tx.rollback()
	if err := fn(tx.repos()); err != nil {
		return err
	}
	return tx.commit()
}

// Ledger repositorio del ledger en modo autocommit.
func (s *Store) Ledger() *LedgerRepo { return &LedgerRepo{session{s: s}} }

// StockRequests repositorio de traslados en modo autocommit.
func (s *Store) StockRequests() *StockRequestRepo { return &StockRequestRepo{session{s: s}} }

// DiscardRequests repositorio de bajas en modo autocommit.
func (s *Store) DiscardRequests() *DiscardRequestRepo { return &DiscardRequestRepo{session{s: s}} }

// Items repositorio de artículos.
func (s *Store) Items() *ItemRepo { return &ItemRepo{s: s} }

// Locations repositorio de ubicaciones.
func (s *Store) Locations() *LocationRepo { return &LocationRepo{s: s} }

// committedBalance saldo confirmado del par. Requiere mu tomado.
func (s *Store) committedBalance(k pairKey) int64 {
	if b, ok := s.balances[k]; ok {
		return b.Quantity
	}
	return 0
}

// session ata un repositorio a una transacción; tx nil = autocommit.
type session struct {
	s  *Store
	tx *Tx
}

func (ss session) write(fn func(tx *Tx) error) error {
	if ss.tx != nil {
		return fn(ss.tx)
	}
	tx := ss.s.begin()
	defer tx.rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}

// Tx acumula escrituras y candados hasta commit o rollback.
type Tx struct {
	s        *Store
	held     map[string]struct{}
	entries  []*entity.LedgerEntry
	deltas   map[pairKey]int64
	lastMove map[pairKey]time.Time
	stock    map[string]*entity.StockRequest
	discards map[string]*entity.DiscardRequest
	done     bool
}

func (s *Store) begin() *Tx {
	return &Tx{
		s:        s,
		held:     make(map[string]struct{}),
		deltas:   make(map[pairKey]int64),
		lastMove: make(map[pairKey]time.Time),
		stock:    make(map[string]*entity.StockRequest),
		discards: make(map[string]*entity.DiscardRequest),
	}
}

func (tx *Tx) repos() inventory.Repos {
	ss := session{s: tx.s, tx: tx}
	return inventory.Repos{
		Ledger:   &LedgerRepo{ss},
		Stock:    &StockRequestRepo{ss},
		Discards: &DiscardRequestRepo{ss},
	}
}

// lock toma el candado de la clave hasta el fin de la transacción. Reentrante.
func (tx *Tx) lock(ctx context.Context, key string) error {
	if tx.done {
		return fmt.Errorf("transacción finalizada")
	}
	if _, ok := tx.held[key]; ok {
		return nil
	}
	if err := tx.s.locks.acquire(ctx, key, tx.s.lockTimeout); err != nil {
		return err
	}
	tx.held[key] = struct{}{}
	return nil
}

// balance saldo visible para la transacción: confirmado más pendiente.
func (tx *Tx) balance(k pairKey) int64 {
	tx.s.mu.RLock()
	defer tx.s.mu.RUnlock()
	return tx.s.committedBalance(k) + tx.deltas[k]
}

func (tx *Tx) commit() error {
	if tx.done {
		return fmt.Errorf("transacción finalizada")
	}
	defer tx.release()

	s := tx.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, d := range tx.deltas {
		if s.committedBalance(k)+d < 0 {
			return fmt.Errorf("%w: commit (%s, %s)", domain.ErrIntegrity, k.item, k.location)
		}
	}
	for k, d := range tx.deltas {
		b, ok := s.balances[k]
		if !ok {
			b = &entity.StockBalance{ItemID: k.item, LocationID: k.location}
			s.balances[k] = b
		}
		b.Quantity += d
		if at := tx.lastMove[k]; at.After(b.LastMovementAt) {
			b.LastMovementAt = at
		}
	}
	s.entries = append(s.entries, tx.entries...)
	for id, req := range tx.stock {
		s.stock[id] = req
	}
	for id, req := range tx.discards {
		s.discards[id] = req
	}
	return nil
}

func (tx *Tx) rollback() {
	if tx.done {
		return
	}
	tx.release()
}

func (tx *Tx) release() {
	tx.done = true
	for key := range tx.held {
		tx.s.locks.release(key)
	}
	tx.held = nil
}

// lockTable un semáforo de capacidad 1 por clave.
type lockTable struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{slots: make(map[string]chan struct{})}
}

func (t *lockTable) slot(key string) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		t.slots[key] = ch
	}
	return ch
}

func (t *lockTable) acquire(ctx context.Context, key string, timeout time.Duration) error {
	ch := t.slot(key)
	select {
	case ch <- struct{}{}:
		return nil
	default:
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: %s", domain.ErrLockTimeout, key)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *lockTable) release(key string) {
	<-t.slot(key)
}

func balanceKey(k pairKey) string { return "balance:" + k.item + "/" + k.location }
func stockKey(id string) string   { return "stock_request:" + id }
func discardKey(id string) string { return "discard_request:" + id }
