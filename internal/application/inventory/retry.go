package inventory

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/jhoicas/stockledger-api/internal/domain"
)

// RetryPolicy reintentos ante ErrLockTimeout. Ningún otro error se reintenta.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetryPolicy 3 intentos separados 50ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Delay: 50 * time.Millisecond}
}

func (p RetryPolicy) do(ctx context.Context, m Metrics, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.Delay
	if delay <= 0 {
		delay = 50 * time.Millisecond
	}
	b := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(delay))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := fn(ctx)
		if domain.Retryable(err) {
			m.LockContention()
			return retry.RetryableError(err)
		}
		return err
	})
}
