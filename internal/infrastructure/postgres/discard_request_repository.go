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

var _ repository.DiscardRequestRepository = (*DiscardRequestRepo)(nil)

// DiscardRequestRepo solicitudes de baja sobre PostgreSQL (usable con pool o tx).
type DiscardRequestRepo struct {
	q Querier
}

// NewDiscardRequestRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDiscardRequestRepository(q Querier) *DiscardRequestRepo {
	return &DiscardRequestRepo{q: q}
}

const discardRequestColumns = `id, item_id, location_id, quantity, quantity_approved, reason, requested_by,
	status, notes, decided_by, decision_reason, created_at, decided_at`

// Create persiste una solicitud de baja.
func (r *DiscardRequestRepo) Create(ctx context.Context, req *entity.DiscardRequest) error {
	query := `
		INSERT INTO discard_requests (` + discardRequestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		req.ID, req.ItemID, req.LocationID, req.Quantity, req.QuantityApproved, req.Reason, req.RequestedBy,
		string(req.Status), req.Notes, req.DecidedBy, req.DecisionReason, req.CreatedAt, req.DecidedAt,
	)
	if err != nil {
		return mapPgError(err, "insert discard request")
	}
	return nil
}

// GetByID obtiene una baja por ID.
func (r *DiscardRequestRepo) GetByID(ctx context.Context, id string) (*entity.DiscardRequest, error) {
	return r.get(ctx, `SELECT `+discardRequestColumns+` FROM discard_requests WHERE id = $1`, id)
}

// GetForUpdate obtiene la baja y bloquea la fila.
func (r *DiscardRequestRepo) GetForUpdate(ctx context.Context, id string) (*entity.DiscardRequest, error) {
	return r.get(ctx, `SELECT `+discardRequestColumns+` FROM discard_requests WHERE id = $1 FOR UPDATE`, id)
}

// Update persiste cantidad candidata, estado y decisión.
func (r *DiscardRequestRepo) Update(ctx context.Context, req *entity.DiscardRequest) error {
	query := `
		UPDATE discard_requests
		SET quantity_approved = $2, status = $3, decided_by = $4, decision_reason = $5, decided_at = $6
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		req.ID, req.QuantityApproved, string(req.Status), req.DecidedBy, req.DecisionReason, req.DecidedAt,
	)
	if err != nil {
		return mapPgError(err, "update discard request")
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: solicitud %s", domain.ErrNotFound, req.ID)
	}
	return nil
}

// ListByStatus lista bajas por estado (vacío = todas).
func (r *DiscardRequestRepo) ListByStatus(ctx context.Context, status entity.RequestStatus, limit, offset int) ([]*entity.DiscardRequest, error) {
	query := `
		SELECT ` + discardRequestColumns + `
		FROM discard_requests
		WHERE ($1::text = '' OR status = $1::text)
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, string(status), limit, offset)
	if err != nil {
		return nil, mapPgError(err, "list discard requests")
	}
	defer rows.Close()
	var list []*entity.DiscardRequest
	for rows.Next() {
		req, err := scanDiscardRequest(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, req)
	}
	return list, rows.Err()
}

func (r *DiscardRequestRepo) get(ctx context.Context, query, id string) (*entity.DiscardRequest, error) {
	req, err := scanDiscardRequest(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapPgError(err, "get discard request")
	}
	return req, nil
}

func scanDiscardRequest(row pgx.Row) (*entity.DiscardRequest, error) {
	var (
		req    entity.DiscardRequest
		status string
	)
	err := row.Scan(
		&req.ID, &req.ItemID, &req.LocationID, &req.Quantity, &req.QuantityApproved, &req.Reason, &req.RequestedBy,
		&status, &req.Notes, &req.DecidedBy, &req.DecisionReason, &req.CreatedAt, &req.DecidedAt,
	)
	if err != nil {
		return nil, err
	}
	req.Status = entity.RequestStatus(status)
	return &req, nil
}
