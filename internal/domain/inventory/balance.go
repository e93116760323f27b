package inventory

import (
	"fmt"
	"iter"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// Fold suma los deltas de una secuencia de asientos (saldo por replay).
// Devuelve ErrIntegrity si algún prefijo de la secuencia queda en negativo.
func Fold(entries iter.Seq2[*entity.LedgerEntry, error]) (int64, error) {
	var total int64
	for e, err := range entries {
		if err != nil {
			return 0, err
		}
		total += e.Delta
		if total < 0 {
			return 0, fmt.Errorf("%w: saldo %d tras el asiento %d", domain.ErrIntegrity, total, e.ID)
		}
	}
	return total, nil
}

// DaysIdle días completos transcurridos desde el último movimiento.
func DaysIdle(now, lastMovement time.Time) int {
	if now.Before(lastMovement) {
		return 0
	}
	return int(now.Sub(lastMovement) / (24 * time.Hour))
}

// IdleCutoff instante límite: un par es stock muerto si su último movimiento es <= cutoff.
func IdleCutoff(now time.Time, thresholdDays int) time.Time {
	return now.Add(-time.Duration(thresholdDays) * 24 * time.Hour)
}
