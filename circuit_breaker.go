package riak

import (
	"net"
	"time"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker guards connection attempts to one endpoint.
// *gobreaker.CircuitBreaker[net.Conn] implements it.
//
// When the breaker is open, the attempt fails without dialing and the
// reconnect supervisor moves on to the next endpoint.
type CircuitBreaker interface {
	Execute(dial func() (net.Conn, error)) (net.Conn, error)
	State() gobreaker.State
}

// NewCircuitBreakerConfig returns a function that creates circuit breakers for endpoints.
// This is a helper for common use cases.
func NewCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration) func(string) CircuitBreaker {
	return func(endpoint string) CircuitBreaker {
		settings := gobreaker.Settings{
			Name:        endpoint,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
		}
		return gobreaker.NewCircuitBreaker[net.Conn](settings)
	}
}
