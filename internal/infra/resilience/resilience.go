// Package resilience provides fault-tolerance patterns for outbound calls:
// circuit breaker and bulkhead, both exposed as rotessa transport wrappers.
package resilience

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/boddenberg/rotessa-go/internal/domain"
	"github.com/boddenberg/rotessa-go/internal/infra/rotessa"

	"github.com/sony/gobreaker"
)

// NewCircuitBreaker creates a circuit breaker with sensible defaults.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,                // half-open: allow 3 requests
		Interval:    30 * time.Second, // closed: reset counters every 30s
		Timeout:     10 * time.Second, // open -> half-open after 10s
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
	})
}

// errServerStatus marks a 5xx answer as a breaker failure while the response
// itself still reaches the caller.
var errServerStatus = errors.New("server error status")

// BreakerTransport counts network failures and 5xx answers against cb.
// While the breaker is open calls fail fast with *domain.ErrCircuitOpen.
func BreakerTransport(cb *gobreaker.CircuitBreaker, next rotessa.Transport) rotessa.Transport {
	return func(req *http.Request) (*http.Response, error) {
		var resp *http.Response
		_, err := cb.Execute(func() (interface{}, error) {
			r, err := next(req)
			if err != nil {
				return nil, err
			}
			resp = r
			if r.StatusCode >= 500 {
				return nil, errServerStatus
			}
			return nil, nil
		})

		switch {
		case errors.Is(err, errServerStatus):
			return resp, nil
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return nil, &domain.ErrCircuitOpen{Service: cb.Name()}
		case err != nil:
			return nil, err
		}
		return resp, nil
	}
}

// Bulkhead limits concurrent access to a resource.
type Bulkhead struct {
	sem chan struct{}
}

// NewBulkhead creates a bulkhead with the given max concurrency.
func NewBulkhead(maxConcurrency int) *Bulkhead {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Bulkhead{sem: make(chan struct{}, maxConcurrency)}
}

// Acquire blocks until a slot is available or context is cancelled.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot.
func (b *Bulkhead) Release() {
	<-b.sem
}

// BulkheadTransport holds a slot for the duration of each round trip.
// Waiting for a slot honours the request context, so the client timeout
// still applies to queued calls.
func BulkheadTransport(b *Bulkhead, next rotessa.Transport) rotessa.Transport {
	return func(req *http.Request) (*http.Response, error) {
		if err := b.Acquire(req.Context()); err != nil {
			return nil, err
		}
		defer b.Release()
		return next(req)
	}
}
