package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
)

// decisionTarget adapta un tipo de solicitud a la máquina de estados común.
// Traslados y bajas comparten ciclo de vida y disciplina de concurrencia.
type decisionTarget interface {
	kind() string
	load(ctx context.Context, repos Repos, id string) (bool, error)
	status() entity.RequestStatus
	resolve(override *int64) (int64, error)
	movement(actorID string, qty int64) inventory.Movement
	approve(actorID string, qty int64, at time.Time)
	reject(actorID, reason string, at time.Time)
	save(ctx context.Context, repos Repos) error
}

type stockDecision struct {
	req *entity.StockRequest
}

func (d *stockDecision) kind() string { return "transfer" }

func (d *stockDecision) load(ctx context.Context, repos Repos, id string) (bool, error) {
	req, err := repos.Stock.GetForUpdate(ctx, id)
	if err != nil {
		return false, err
	}
	d.req = req
	return req != nil, nil
}

func (d *stockDecision) status() entity.RequestStatus { return d.req.Status }

func (d *stockDecision) resolve(override *int64) (int64, error) {
	return inventory.ResolveQuantity(d.req.QuantityRequested, d.req.QuantityApproved, override)
}

func (d *stockDecision) movement(actorID string, qty int64) inventory.Movement {
	return inventory.TransferMovement(d.req, actorID, qty)
}

func (d *stockDecision) approve(actorID string, qty int64, at time.Time) {
	d.req.Status = entity.RequestStatusApproved
	d.req.QuantityApproved = &qty
	d.req.DecidedBy = actorID
	d.req.DecidedAt = &at
}

func (d *stockDecision) reject(actorID, reason string, at time.Time) {
	d.req.Status = entity.RequestStatusRejected
	d.req.DecidedBy = actorID
	d.req.DecisionReason = reason
	d.req.DecidedAt = &at
}

func (d *stockDecision) save(ctx context.Context, repos Repos) error {
	return repos.Stock.Update(ctx, d.req)
}

type discardDecision struct {
	req *entity.DiscardRequest
}

func (d *discardDecision) kind() string { return "discard" }

func (d *discardDecision) load(ctx context.Context, repos Repos, id string) (bool, error) {
	req, err := repos.Discards.GetForUpdate(ctx, id)
	if err != nil {
		return false, err
	}
	d.req = req
	return req != nil, nil
}

func (d *discardDecision) status() entity.RequestStatus { return d.req.Status }

func (d *discardDecision) resolve(override *int64) (int64, error) {
	return inventory.ResolveQuantity(d.req.Quantity, d.req.QuantityApproved, override)
}

func (d *discardDecision) movement(actorID string, qty int64) inventory.Movement {
	return inventory.DiscardMovement(d.req, actorID, qty)
}

func (d *discardDecision) approve(actorID string, qty int64, at time.Time) {
	d.req.Status = entity.RequestStatusApproved
	d.req.QuantityApproved = &qty
	d.req.DecidedBy = actorID
	d.req.DecidedAt = &at
}

func (d *discardDecision) reject(actorID, reason string, at time.Time) {
	d.req.Status = entity.RequestStatusRejected
	d.req.DecidedBy = actorID
	d.req.DecisionReason = reason
	d.req.DecidedAt = &at
}

func (d *discardDecision) save(ctx context.Context, repos Repos) error {
	return repos.Discards.Update(ctx, d.req)
}
