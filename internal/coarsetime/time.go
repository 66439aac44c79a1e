// Package coarsetime provides a clock refreshed every 50ms by a background
// goroutine, for hot paths that need a timestamp but not its precision,
// such as I/O deadlines of several seconds.
package coarsetime

import (
	"sync/atomic"
	"time"
)

const Resolution = 50 * time.Millisecond

var nowNanos atomic.Int64

func init() {
	nowNanos.Store(time.Now().UnixNano())

	ticker := time.NewTicker(Resolution)
	go func() {
		for t := range ticker.C {
			nowNanos.Store(t.UnixNano())
		}
	}()
}

// Now returns the current time, late by at most Resolution.
func Now() time.Time {
	return time.Unix(0, nowNanos.Load())
}

// Deadline returns the time d from now, for SetDeadline and friends.
func Deadline(d time.Duration) time.Time {
	return Now().Add(d)
}
