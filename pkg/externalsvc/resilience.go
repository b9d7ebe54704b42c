package externalsvc

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/newsroom-systems/chief/pkg/chieferrors"
)

// Resilient wraps an external call in a circuit breaker and retries
// calls that fail with chieferrors.Transient using exponential backoff.
// Any other error kind trips through immediately as permanent — a
// malformed request retrying is never going to succeed.
type Resilient[T any] struct {
	breaker *gobreaker.CircuitBreaker
}

// NewResilient builds a named circuit breaker: it opens after 5
// consecutive failures and probes again after 30s, the same shape
// gobreaker's own example settings use.
func NewResilient[T any](name string) *Resilient[T] {
	settings := gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Resilient[T]{breaker: gobreaker.NewCircuitBreaker(settings)}
}

// Call runs op through the breaker, retrying transient failures with
// exponential backoff bounded by ctx.
func (r *Resilient[T]) Call(ctx context.Context, op func(ctx context.Context) (T, error)) (T, error) {
	var result T

	retryable := func() error {
		v, err := r.breaker.Execute(func() (any, error) { return op(ctx) })
		if err != nil {
			if chieferrors.Is(err, chieferrors.Transient) {
				return err
			}
			return backoff.Permanent(err)
		}
		result = v.(T)
		return nil
	}

	b := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	err := backoff.Retry(retryable, b)
	return result, err
}
