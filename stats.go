package riak

import (
	"sync/atomic"
)

// ClientStats contains statistics about client operations.
// All fields are safe for concurrent access.
//
// For Prometheus integration, see NewStatsCollector:
//   - Counters: Gets, Puts, Deletes, ListKeys, Errors
//   - Counter: GetHits (derive hit rate as GetHits/Gets)
//   - Counters: Queued, DroppedResponses, Connects, ConnectFailures
type ClientStats struct {
	Gets             uint64 // Total Get operations answered
	GetHits          uint64 // Get operations that found a value
	Puts             uint64 // Total Put operations answered
	Deletes          uint64 // Total Delete operations answered
	ListKeys         uint64 // Total ListKeys operations completed
	SiblingsResolved uint64 // Responses collapsed by a conflict resolver
	Errors           uint64 // Total errors across all operations
	Queued           uint64 // Requests queued while disconnected
	DroppedResponses uint64 // Responses received with no pending request
	Connects         uint64 // Successful connections
	ConnectFailures  uint64 // Failed connection attempts
}

// clientStatsCollector provides internal methods for updating client stats.
// Not exported - client updates its own stats.
type clientStatsCollector struct {
	stats *ClientStats
}

func newClientStatsCollector() *clientStatsCollector {
	return &clientStatsCollector{
		stats: &ClientStats{},
	}
}

func (c *clientStatsCollector) recordGet(found bool) {
	atomic.AddUint64(&c.stats.Gets, 1)
	if found {
		atomic.AddUint64(&c.stats.GetHits, 1)
	}
}

func (c *clientStatsCollector) recordPut() {
	atomic.AddUint64(&c.stats.Puts, 1)
}

func (c *clientStatsCollector) recordDelete() {
	atomic.AddUint64(&c.stats.Deletes, 1)
}

func (c *clientStatsCollector) recordListKeys() {
	atomic.AddUint64(&c.stats.ListKeys, 1)
}

func (c *clientStatsCollector) recordSiblingsResolved() {
	atomic.AddUint64(&c.stats.SiblingsResolved, 1)
}

func (c *clientStatsCollector) recordError() {
	atomic.AddUint64(&c.stats.Errors, 1)
}

func (c *clientStatsCollector) recordQueued() {
	atomic.AddUint64(&c.stats.Queued, 1)
}

func (c *clientStatsCollector) recordDroppedResponse() {
	atomic.AddUint64(&c.stats.DroppedResponses, 1)
}

func (c *clientStatsCollector) recordConnect() {
	atomic.AddUint64(&c.stats.Connects, 1)
}

func (c *clientStatsCollector) recordConnectFailure() {
	atomic.AddUint64(&c.stats.ConnectFailures, 1)
}

func (c *clientStatsCollector) snapshot() ClientStats {
	return ClientStats{
		Gets:             atomic.LoadUint64(&c.stats.Gets),
		GetHits:          atomic.LoadUint64(&c.stats.GetHits),
		Puts:             atomic.LoadUint64(&c.stats.Puts),
		Deletes:          atomic.LoadUint64(&c.stats.Deletes),
		ListKeys:         atomic.LoadUint64(&c.stats.ListKeys),
		SiblingsResolved: atomic.LoadUint64(&c.stats.SiblingsResolved),
		Errors:           atomic.LoadUint64(&c.stats.Errors),
		Queued:           atomic.LoadUint64(&c.stats.Queued),
		DroppedResponses: atomic.LoadUint64(&c.stats.DroppedResponses),
		Connects:         atomic.LoadUint64(&c.stats.Connects),
		ConnectFailures:  atomic.LoadUint64(&c.stats.ConnectFailures),
	}
}
