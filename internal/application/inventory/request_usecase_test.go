package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	domaininv "github.com/jhoicas/stockledger-api/internal/domain/inventory"
)

func approve(id string) inventory.DecideInput {
	return inventory.DecideInput{RequestID: id, ActorID: approver, Outcome: domaininv.OutcomeApprove}
}

func TestCreateStockRequest_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	same := lab1
	unknown := "loc-desconocida"

	tests := []struct {
		name string
		in   inventory.CreateStockRequestInput
		want error
	}{
		{"cantidad cero", inventory.CreateStockRequestInput{ItemID: itemX, Quantity: 0, RequestedBy: actor, FromLocationID: lab1}, domain.ErrValidation},
		{"sin solicitante", inventory.CreateStockRequestInput{ItemID: itemX, Quantity: 1, FromLocationID: lab1}, domain.ErrValidation},
		{"origen igual a destino", inventory.CreateStockRequestInput{ItemID: itemX, Quantity: 1, RequestedBy: actor, FromLocationID: lab1, ToLocationID: &same}, domain.ErrValidation},
		{"artículo desconocido", inventory.CreateStockRequestInput{ItemID: "nada", Quantity: 1, RequestedBy: actor, FromLocationID: lab1}, domain.ErrNotFound},
		{"destino desconocido", inventory.CreateStockRequestInput{ItemID: itemX, Quantity: 1, RequestedBy: actor, FromLocationID: lab1, ToLocationID: &unknown}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.requests.CreateStockRequest(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateStockRequest_NoConsultaSaldo(t *testing.T) {
	f := newFixture(t)

	req := f.transfer(t, 500)

	assert.Equal(t, entity.RequestStatusPending, req.Status)
	assert.EqualValues(t, 500, req.QuantityRequested)
	assert.Nil(t, req.QuantityApproved)
	assert.Equal(t, baseTime, req.CreatedAt)
}

func TestCreateDiscardRequest_MotivoDesconocido(t *testing.T) {
	f := newFixture(t)

	_, err := f.requests.CreateDiscardRequest(context.Background(), inventory.CreateDiscardRequestInput{
		ItemID: itemX, LocationID: lab1, Quantity: 1, Reason: "LOST", RequestedBy: actor,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// Saldo 10 en Lab1, traslado de 6 a Main aprobado: Lab1=4, Main=6.
func TestDecideStockRequest_TrasladoAprobado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, lab1, 10)
	req := f.transfer(t, 6)

	got, err := f.requests.DecideStockRequest(ctx, approve(req.ID))
	require.NoError(t, err)

	assert.Equal(t, entity.RequestStatusApproved, got.Status)
	require.NotNil(t, got.QuantityApproved)
	assert.EqualValues(t, 6, *got.QuantityApproved)
	assert.Equal(t, approver, got.DecidedBy)
	assert.EqualValues(t, 4, f.balance(t, lab1))
	assert.EqualValues(t, 6, f.balance(t, mainLoc))

	entries, err := f.store.Ledger().EntriesForRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, entries[0].TransactionID, entries[1].TransactionID, "las dos patas comparten transacción")
	assert.EqualValues(t, 0, entries[0].Delta+entries[1].Delta)

	assert.Equal(t, 1, f.metrics.Decided("transfer/approved"))
}

func TestDecideStockRequest_RedecidirFalla(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, lab1, 10)
	req := f.transfer(t, 3)

	_, err := f.requests.DecideStockRequest(ctx, approve(req.ID))
	require.NoError(t, err)

	_, err = f.requests.DecideStockRequest(ctx, approve(req.ID))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.requests.DecideStockRequest(ctx, inventory.DecideInput{RequestID: req.ID, ActorID: approver, Outcome: domaininv.OutcomeReject})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.EqualValues(t, 7, f.balance(t, lab1), "el segundo intento no debe mover stock")
	stored, err := f.requests.GetStockRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusApproved, stored.Status)
}

func TestDecideStockRequest_RechazoSinEfectoEnLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, lab1, 10)
	req := f.transfer(t, 3)

	got, err := f.requests.DecideStockRequest(ctx, inventory.DecideInput{
		RequestID: req.ID, ActorID: approver, Outcome: domaininv.OutcomeReject, Reason: "no corresponde",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusRejected, got.Status)
	assert.Equal(t, "no corresponde", got.DecisionReason)
	assert.EqualValues(t, 10, f.balance(t, lab1))

	entries, err := f.store.Ledger().EntriesForRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDecideStockRequest_StockInsuficienteQuedaRechazada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, lab1, 4)
	req := f.transfer(t, 6)

	got, err := f.requests.DecideStockRequest(ctx, approve(req.ID))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	require.NotNil(t, got)
	assert.Equal(t, entity.RequestStatusRejected, got.Status)
	assert.Equal(t, domaininv.ReasonInsufficientStock, got.DecisionReason)

	stored, err := f.requests.GetStockRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusRejected, stored.Status, "el rechazo queda confirmado")
	assert.EqualValues(t, 4, f.balance(t, lab1))
	assert.EqualValues(t, 0, f.balance(t, mainLoc))
	assert.Equal(t, 1, f.metrics.Decided("transfer/insufficient_stock"))
}

func TestModifyStockRequest_CantidadCandidata(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, lab1, 10)
	req := f.transfer(t, 8)

	_, err := f.requests.ModifyStockRequest(ctx, req.ID, 9)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.requests.ModifyStockRequest(ctx, req.ID, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	mod, err := f.requests.ModifyStockRequest(ctx, req.ID, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 8, mod.QuantityRequested, "la solicitada no cambia")
	require.NotNil(t, mod.QuantityApproved)
	assert.EqualValues(t, 5, *mod.QuantityApproved)

	got, err := f.requests.DecideStockRequest(ctx, approve(req.ID))
	require.NoError(t, err)
	assert.EqualValues(t, 5, *got.QuantityApproved)
	assert.EqualValues(t, 5, f.balance(t, lab1))

	_, err = f.requests.ModifyStockRequest(ctx, req.ID, 2)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "solo en PENDING")
}

func TestDecideStockRequest_CantidadExplicitaGana(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, lab1, 10)
	req := f.transfer(t, 8)
	_, err := f.requests.ModifyStockRequest(ctx, req.ID, 5)
	require.NoError(t, err)

	in := approve(req.ID)
	qty := int64(2)
	in.ApprovedQuantity = &qty
	got, err := f.requests.DecideStockRequest(ctx, in)
	require.NoError(t, err)
	assert.EqualValues(t, 2, *got.QuantityApproved)
	assert.EqualValues(t, 8, f.balance(t, lab1))
	assert.EqualValues(t, 2, f.balance(t, mainLoc))
}

func TestDecideStockRequest_Requisicion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, lab1, 10)
	req, err := f.requests.CreateStockRequest(ctx, inventory.CreateStockRequestInput{
		ItemID: itemX, Quantity: 3, RequestedBy: actor, FromLocationID: lab1,
	})
	require.NoError(t, err)

	_, err = f.requests.DecideStockRequest(ctx, approve(req.ID))
	require.NoError(t, err)

	entries, err := f.store.Ledger().EntriesForRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.EntryKindIssue, entries[0].Kind)
	assert.EqualValues(t, 7, f.balance(t, lab1))
}

func TestDecide_EntradasInvalidas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.requests.DecideStockRequest(ctx, inventory.DecideInput{RequestID: "x", ActorID: approver, Outcome: "MAYBE"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.requests.DecideStockRequest(ctx, inventory.DecideInput{RequestID: "x", Outcome: domaininv.OutcomeApprove})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.requests.DecideStockRequest(ctx, approve("no-existe"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.requests.DecideDiscardRequest(ctx, approve("no-existe"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Dos aprobaciones concurrentes de 6 sobre un saldo de 10: exactamente una gana.
func TestDecideStockRequest_CarreraDeAprobaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, lab1, 10)
	first := f.transfer(t, 6)
	second := f.transfer(t, 6)

	results := make([]error, 2)
	var g errgroup.Group
	for i, id := range []string{first.ID, second.ID} {
		g.Go(func() error {
			_, results[i] = f.requests.DecideStockRequest(ctx, approve(id))
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var ok, insufficient int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)
	assert.EqualValues(t, 4, f.balance(t, lab1))
	assert.EqualValues(t, 6, f.balance(t, mainLoc))

	approved, err := f.requests.ListStockRequests(ctx, entity.RequestStatusApproved, 10, 0)
	require.NoError(t, err)
	rejected, err := f.requests.ListStockRequests(ctx, entity.RequestStatusRejected, 10, 0)
	require.NoError(t, err)
	assert.Len(t, approved, 1)
	assert.Len(t, rejected, 1)
}

// Muchas aprobaciones pequeñas en paralelo nunca llevan el saldo bajo cero.
func TestDecideStockRequest_ConcurrenciaNuncaNegativo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, lab1, 25)
	const n = 20
	ids := make([]string, n)
	for i := range ids {
		ids[i] = f.transfer(t, 2).ID
	}

	var g errgroup.Group
	for _, id := range ids {
		g.Go(func() error {
			_, err := f.requests.DecideStockRequest(ctx, approve(id))
			if err != nil && !errors.Is(err, domain.ErrInsufficientStock) {
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	approved, err := f.requests.ListStockRequests(ctx, entity.RequestStatusApproved, 100, 0)
	require.NoError(t, err)
	assert.Len(t, approved, 12)
	assert.EqualValues(t, 1, f.balance(t, lab1))
	assert.EqualValues(t, 24, f.balance(t, mainLoc))

	replayed, err := f.projector.Replay(ctx, itemX, lab1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, replayed, "el contador coincide con el replay del ledger")
}

// Baja de 4 sobre saldo 4: queda en 0 y el reporte con umbral 0 ya no lista el par.
func TestDecideDiscardRequest_SaldoCeroSaleDelReporte(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, lab1, 4)

	rows := collect(t, f.deadStock.Scan(ctx, 0))
	require.Len(t, rows, 1)

	req, err := f.requests.CreateDiscardRequest(ctx, inventory.CreateDiscardRequestInput{
		ItemID: itemX, LocationID: lab1, Quantity: 4, Reason: entity.DiscardReasonExpired, RequestedBy: actor,
	})
	require.NoError(t, err)

	got, err := f.requests.DecideDiscardRequest(ctx, approve(req.ID))
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusApproved, got.Status)
	assert.EqualValues(t, 0, f.balance(t, lab1))

	assert.Empty(t, collect(t, f.deadStock.Scan(ctx, 0)))
	assert.Equal(t, 1, f.metrics.Decided("discard/approved"))
}

func TestDecideDiscardRequest_StockInsuficiente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, lab1, 2)
	req, err := f.requests.CreateDiscardRequest(ctx, inventory.CreateDiscardRequestInput{
		ItemID: itemX, LocationID: lab1, Quantity: 3, Reason: entity.DiscardReasonDamaged, RequestedBy: actor,
	})
	require.NoError(t, err)

	got, err := f.requests.DecideDiscardRequest(ctx, approve(req.ID))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, entity.RequestStatusRejected, got.Status)
	assert.EqualValues(t, 2, f.balance(t, lab1))
}

func TestListStockRequests_ColaPendienteEnOrden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.transfer(t, 1)
	f.clock.Advance(1)
	b := f.transfer(t, 2)

	list, err := f.requests.ListStockRequests(ctx, entity.RequestStatusPending, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)

	_, err = f.requests.ListStockRequests(ctx, "ARCHIVED", 10, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
