package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.StockRequestRepository = (*StockRequestRepo)(nil)

// StockRequestRepo solicitudes de traslado sobre PostgreSQL (usable con pool o tx).
type StockRequestRepo struct {
	q Querier
}

// NewStockRequestRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockRequestRepository(q Querier) *StockRequestRepo {
	return &StockRequestRepo{q: q}
}

const stockRequestColumns = `id, item_id, quantity_requested, quantity_approved, requested_by, from_location_id,
	to_location_id, status, notes, decided_by, decision_reason, created_at, decided_at`

// Create persiste una solicitud nueva.
func (r *StockRequestRepo) Create(ctx context.Context, req *entity.StockRequest) error {
	query := `
		INSERT INTO stock_requests (` + stockRequestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		req.ID, req.ItemID, req.QuantityRequested, req.QuantityApproved, req.RequestedBy, req.FromLocationID,
		req.ToLocationID, string(req.Status), req.Notes, req.DecidedBy, req.DecisionReason, req.CreatedAt, req.DecidedAt,
	)
	if err != nil {
		return mapPgError(err, "insert stock request")
	}
	return nil
}

// GetByID obtiene una solicitud por ID.
func (r *StockRequestRepo) GetByID(ctx context.Context, id string) (*entity.StockRequest, error) {
	return r.get(ctx, `SELECT `+stockRequestColumns+` FROM stock_requests WHERE id = $1`, id)
}

// GetForUpdate obtiene la solicitud y bloquea la fila (SELECT FOR UPDATE).
func (r *StockRequestRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockRequest, error) {
	return r.get(ctx, `SELECT `+stockRequestColumns+` FROM stock_requests WHERE id = $1 FOR UPDATE`, id)
}

// Update persiste cantidad candidata, estado y datos de la decisión.
func (r *StockRequestRepo) Update(ctx context.Context, req *entity.StockRequest) error {
	query := `
		UPDATE stock_requests
		SET quantity_approved = $2, status = $3, decided_by = $4, decision_reason = $5, decided_at = $6
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		req.ID, req.QuantityApproved, string(req.Status), req.DecidedBy, req.DecisionReason, req.DecidedAt,
	)
	if err != nil {
		return mapPgError(err, "update stock request")
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: solicitud %s", domain.ErrNotFound, req.ID)
	}
	return nil
}

// ListByStatus lista por estado (vacío = todos), más antiguas primero.
func (r *StockRequestRepo) ListByStatus(ctx context.Context, status entity.RequestStatus, limit, offset int) ([]*entity.StockRequest, error) {
	query := `
		SELECT ` + stockRequestColumns + `
		FROM stock_requests
		WHERE ($1::text = '' OR status = $1::text)
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, string(status), limit, offset)
	if err != nil {
		return nil, mapPgError(err, "list stock requests")
	}
	defer rows.Close()
	var list []*entity.StockRequest
	for rows.Next() {
		req, err := scanStockRequest(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, req)
	}
	return list, rows.Err()
}

func (r *StockRequestRepo) get(ctx context.Context, query, id string) (*entity.StockRequest, error) {
	req, err := scanStockRequest(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapPgError(err, "get stock request")
	}
	return req, nil
}

func scanStockRequest(row pgx.Row) (*entity.StockRequest, error) {
	var (
		req    entity.StockRequest
		status string
	)
	err := row.Scan(
		&req.ID, &req.ItemID, &req.QuantityRequested, &req.QuantityApproved, &req.RequestedBy, &req.FromLocationID,
		&req.ToLocationID, &status, &req.Notes, &req.DecidedBy, &req.DecisionReason, &req.CreatedAt, &req.DecidedAt,
	)
	if err != nil {
		return nil, err
	}
	req.Status = entity.RequestStatus(status)
	return &req, nil
}
