package postgres

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo ledger append-only sobre PostgreSQL. ledger_balances es un contador por par
// mantenido en la misma transacción que cada asiento; su CHECK (quantity >= 0) es la red
// de seguridad contra saldos negativos.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador del ledger. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

const ledgerEntryColumns = `id, transaction_id, item_id, location_id, kind, delta, related_request_id, reference, actor_id, occurred_at`

// Append actualiza el contador del par e inserta el asiento. Un saldo resultante negativo
// viola ledger_balances_non_negative y se devuelve como ErrIntegrity.
func (r *LedgerRepo) Append(ctx context.Context, e *entity.LedgerEntry) (int64, error) {
	upsert := `
		INSERT INTO ledger_balances (item_id, location_id, quantity, last_movement_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (item_id, location_id)
		DO UPDATE SET quantity = ledger_balances.quantity + EXCLUDED.quantity,
		              last_movement_at = GREATEST(ledger_balances.last_movement_at, EXCLUDED.last_movement_at)`
	if _, err := r.q.Exec(ctx, upsert, e.ItemID, e.LocationID, e.Delta, e.OccurredAt); err != nil {
		return 0, mapPgError(err, "update balance")
	}

	insert := `
		INSERT INTO ledger_entries (transaction_id, item_id, location_id, kind, delta, related_request_id, reference, actor_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	var id int64
	err := r.q.QueryRow(ctx, insert,
		e.TransactionID, e.ItemID, e.LocationID, e.Kind, e.Delta,
		e.RelatedRequestID, e.Reference, e.ActorID, e.OccurredAt,
	).Scan(&id)
	if err != nil {
		return 0, mapPgError(err, "insert ledger entry")
	}
	return id, nil
}

// LockBalance bloquea el contador del par (SELECT FOR UPDATE) y devuelve su saldo.
// Un par sin fila todavía no tiene nada que bloquear: se serializa con un advisory lock
// de transacción sobre el par y se vuelve a leer. La fila solo la crea Append, así que
// bloquear un par nuevo que termina sin asientos (p. ej. destino de un traslado rechazado
// por stock insuficiente) no deja contadores que un replay no reproduciría.
// Ambas esperas quedan acotadas por el lock_timeout de la transacción.
func (r *LedgerRepo) LockBalance(ctx context.Context, itemID, locationID string) (int64, error) {
	qty, found, err := r.lockRow(ctx, itemID, locationID)
	if err != nil || found {
		return qty, err
	}
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1 || '/' || $2, 0))`, itemID, locationID); err != nil {
		return 0, mapPgError(err, "lock new balance")
	}
	// Otra transacción pudo crear la fila mientras esperábamos.
	qty, _, err = r.lockRow(ctx, itemID, locationID)
	return qty, err
}

func (r *LedgerRepo) lockRow(ctx context.Context, itemID, locationID string) (int64, bool, error) {
	var qty int64
	err := r.q.QueryRow(ctx, `
		SELECT quantity FROM ledger_balances
		WHERE item_id = $1 AND location_id = $2
		FOR UPDATE`, itemID, locationID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, mapPgError(err, "lock balance")
	}
	return qty, true, nil
}

// Balance lee el contador confirmado del par. Sin fila = 0.
func (r *LedgerRepo) Balance(ctx context.Context, itemID, locationID string) (int64, error) {
	var qty int64
	err := r.q.QueryRow(ctx, `
		SELECT quantity FROM ledger_balances
		WHERE item_id = $1 AND location_id = $2`, itemID, locationID).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, mapPgError(err, "get balance")
	}
	return qty, nil
}

// EntriesFor asientos del par en orden cronológico; la consulta corre al iterar.
func (r *LedgerRepo) EntriesFor(ctx context.Context, itemID, locationID string) iter.Seq2[*entity.LedgerEntry, error] {
	query := `SELECT ` + ledgerEntryColumns + `
		FROM ledger_entries
		WHERE item_id = $1 AND location_id = $2
		ORDER BY occurred_at, id`
	return func(yield func(*entity.LedgerEntry, error) bool) {
		rows, err := r.q.Query(ctx, query, itemID, locationID)
		if err != nil {
			yield(nil, mapPgError(err, "list ledger entries"))
			return
		}
		defer rows.Close()
		for rows.Next() {
			e, err := scanLedgerEntry(rows)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, mapPgError(err, "list ledger entries"))
		}
	}
}

// EntriesForRequest asientos generados por una solicitud.
func (r *LedgerRepo) EntriesForRequest(ctx context.Context, requestID string) ([]*entity.LedgerEntry, error) {
	query := `SELECT ` + ledgerEntryColumns + `
		FROM ledger_entries
		WHERE related_request_id = $1
		ORDER BY id`
	rows, err := r.q.Query(ctx, query, requestID)
	if err != nil {
		return nil, mapPgError(err, "list request entries")
	}
	defer rows.Close()
	var list []*entity.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// LocationsWithStock saldos > 0 del artículo, por ubicación.
func (r *LedgerRepo) LocationsWithStock(ctx context.Context, itemID string) iter.Seq2[entity.StockBalance, error] {
	query := `
		SELECT item_id, location_id, quantity, last_movement_at
		FROM ledger_balances
		WHERE item_id = $1 AND quantity > 0
		ORDER BY location_id`
	return r.balances(ctx, "locations with stock", query, itemID)
}

// TotalAvailable suma de saldos del artículo.
func (r *LedgerRepo) TotalAvailable(ctx context.Context, itemID string) (int64, error) {
	var total int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0)::BIGINT
		FROM ledger_balances WHERE item_id = $1`, itemID).Scan(&total)
	if err != nil {
		return 0, mapPgError(err, "total available")
	}
	return total, nil
}

// IdleBalances pares con saldo > 0 y último movimiento <= cutoff (índice parcial idx_ledger_balances_idle).
func (r *LedgerRepo) IdleBalances(ctx context.Context, cutoff time.Time) iter.Seq2[entity.StockBalance, error] {
	query := `
		SELECT item_id, location_id, quantity, last_movement_at
		FROM ledger_balances
		WHERE quantity > 0 AND last_movement_at <= $1
		ORDER BY last_movement_at, item_id, location_id`
	return r.balances(ctx, "idle balances", query, cutoff)
}

// RebuildBalances recalcula ledger_balances desde ledger_entries bajo LOCK TABLE, de forma que
// ninguna escritura concurrente se intercale. Un par con suma negativa aborta todo como ErrIntegrity.
func (r *LedgerRepo) RebuildBalances(ctx context.Context) (int, error) {
	tx, err := r.q.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin rebuild: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `LOCK TABLE ledger_balances IN EXCLUSIVE MODE`); err != nil {
		return 0, mapPgError(err, "lock balances")
	}
	if _, err := tx.Exec(ctx, `DELETE FROM ledger_balances`); err != nil {
		return 0, mapPgError(err, "clear balances")
	}
	tag, err := tx.Exec(ctx, `
		INSERT INTO ledger_balances (item_id, location_id, quantity, last_movement_at)
		SELECT item_id, location_id, SUM(delta), MAX(occurred_at)
		FROM ledger_entries
		GROUP BY item_id, location_id`)
	if err != nil {
		return 0, mapPgError(err, "rebuild balances")
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, mapPgError(err, "commit rebuild")
	}
	return int(tag.RowsAffected()), nil
}

func (r *LedgerRepo) balances(ctx context.Context, op, query string, args ...any) iter.Seq2[entity.StockBalance, error] {
	return func(yield func(entity.StockBalance, error) bool) {
		rows, err := r.q.Query(ctx, query, args...)
		if err != nil {
			yield(entity.StockBalance{}, mapPgError(err, op))
			return
		}
		defer rows.Close()
		for rows.Next() {
			var b entity.StockBalance
			if err := rows.Scan(&b.ItemID, &b.LocationID, &b.Quantity, &b.LastMovementAt); err != nil {
				yield(entity.StockBalance{}, fmt.Errorf("scan balance: %w", err))
				return
			}
			if !yield(b, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(entity.StockBalance{}, mapPgError(err, op))
		}
	}
}

func scanLedgerEntry(row pgx.Row) (*entity.LedgerEntry, error) {
	var e entity.LedgerEntry
	err := row.Scan(
		&e.ID, &e.TransactionID, &e.ItemID, &e.LocationID, &e.Kind, &e.Delta,
		&e.RelatedRequestID, &e.Reference, &e.ActorID, &e.OccurredAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan ledger entry: %w", err)
	}
	return &e, nil
}
