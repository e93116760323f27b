package inventory

import (
	"fmt"
	"strings"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// Outcome resultado de la decisión de un aprobador.
type Outcome string

const (
	OutcomeApprove Outcome = "APPROVE"
	OutcomeReject  Outcome = "REJECT"
)

// ReasonInsufficientStock motivo registrado cuando la aprobación pierde la carrera por el stock.
const ReasonInsufficientStock = "insufficient stock at approval time"

// ParseOutcome acepta APPROVE/REJECT sin distinguir mayúsculas.
func ParseOutcome(s string) (Outcome, error) {
	switch Outcome(strings.ToUpper(strings.TrimSpace(s))) {
	case OutcomeApprove:
		return OutcomeApprove, nil
	case OutcomeReject:
		return OutcomeReject, nil
	}
	return "", domain.Validation("outcome debe ser APPROVE o REJECT")
}

// Transition valida el paso de estado. Solo PENDING puede pasar a APPROVED o REJECTED,
// y cada solicitud transiciona una única vez.
func Transition(from, to entity.RequestStatus) error {
	if from != entity.RequestStatusPending {
		return fmt.Errorf("%w: estado actual %s", domain.ErrInvalidTransition, from)
	}
	if to != entity.RequestStatusApproved && to != entity.RequestStatusRejected {
		return fmt.Errorf("%w: destino %s", domain.ErrInvalidTransition, to)
	}
	return nil
}

// ValidateModification comprueba la cantidad candidata fijada por el aprobador: 0 < q <= solicitada.
func ValidateModification(requested, quantity int64) error {
	if quantity <= 0 {
		return domain.Validation("la cantidad debe ser mayor que cero")
	}
	if quantity > requested {
		return domain.Validation("la cantidad aprobada (%d) excede la solicitada (%d)", quantity, requested)
	}
	return nil
}

// ResolveQuantity elige la cantidad a aprobar: la explícita de la decisión, si no la candidata
// fijada con modify, si no la solicitada.
func ResolveQuantity(requested int64, candidate, override *int64) (int64, error) {
	qty := requested
	if candidate != nil {
		qty = *candidate
	}
	if override != nil {
		qty = *override
	}
	if err := ValidateModification(requested, qty); err != nil {
		return 0, err
	}
	return qty, nil
}

// ValidDiscardReason indica si el motivo de baja es conocido.
func ValidDiscardReason(reason string) bool {
	switch reason {
	case entity.DiscardReasonDamaged, entity.DiscardReasonExpired,
		entity.DiscardReasonObsolete, entity.DiscardReasonOther:
		return true
	}
	return false
}
