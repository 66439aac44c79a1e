package riak

import "time"

// reconnectPolicy chooses the endpoint and the delay of each connection
// attempt. Attempts are numbered from 0 and the counter restarts after a
// successful connection.
//
// Endpoints are tried round-robin. The first attempt is immediate, every
// following one waits for the configured delay. There is no attempt limit.
type reconnectPolicy struct {
	endpoints []Endpoint
	delay     time.Duration
}

func (p reconnectPolicy) next(attempt int) (Endpoint, time.Duration) {
	endpoint := p.endpoints[attempt%len(p.endpoints)]
	if attempt == 0 {
		return endpoint, 0
	}
	return endpoint, p.delay
}
