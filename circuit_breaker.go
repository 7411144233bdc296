package botbase

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// NewCircuitBreakerConfig returns a function that creates the circuit
// breaker for an agent address, for use as Config.NewCircuitBreaker.
//
// Every retried transfer is one breaker request, so the breaker opens after
// repeated failed operations, not after single transient failures.
func NewCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration) func(string) *gobreaker.CircuitBreaker[[]byte] {
	return func(addr string) *gobreaker.CircuitBreaker[[]byte] {
		settings := gobreaker.Settings{
			Name:        addr,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
		}
		return gobreaker.NewCircuitBreaker[[]byte](settings)
	}
}

// CircuitBreakerState returns the breaker state, or StateClosed when no
// breaker is configured.
func (c *Client) CircuitBreakerState() gobreaker.State {
	if c.breaker == nil {
		return gobreaker.StateClosed
	}
	return c.breaker.State()
}
