package payment

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/aingc/stripe-example/internal/checkout"
)

// Breaker wraps a checkout.Processor with a circuit breaker so a struggling
// processor is not hammered with fresh submissions. An open circuit refuses
// the charge before anything is sent, which is a definitive failure; it is
// never a retry of an earlier submission.
type Breaker struct {
	inner checkout.Processor
	cb    *gobreaker.CircuitBreaker[*checkout.Receipt]
}

func NewBreaker(inner checkout.Processor) *Breaker {
	settings := gobreaker.Settings{
		Name:     "payment-processor",
		Interval: time.Minute,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Breaker{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[*checkout.Receipt](settings),
	}
}

func (b *Breaker) Charge(ctx context.Context, req checkout.ChargeRequest) (*checkout.Receipt, error) {
	receipt, err := b.cb.Execute(func() (*checkout.Receipt, error) {
		return b.inner.Charge(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &checkout.ProcessorError{Reason: "payment processor temporarily unavailable", Err: err}
		}
		return nil, err
	}
	return receipt, nil
}
