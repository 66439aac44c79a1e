package riak

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StatsCollector exports a client's statistics as Prometheus metrics.
//
//	registry.MustRegister(riak.NewStatsCollector(client))
type StatsCollector struct {
	client *Client

	operations       *prometheus.Desc
	getHits          *prometheus.Desc
	siblingsResolved *prometheus.Desc
	errors           *prometheus.Desc
	queued           *prometheus.Desc
	droppedResponses *prometheus.Desc
	connects         *prometheus.Desc
	connectFailures  *prometheus.Desc
	pending          *prometheus.Desc
	connected        *prometheus.Desc
	circuitState     *prometheus.Desc
}

var _ prometheus.Collector = (*StatsCollector)(nil)

// NewStatsCollector returns a collector exporting the stats of c.
func NewStatsCollector(c *Client) *StatsCollector {
	return &StatsCollector{
		client: c,
		operations: prometheus.NewDesc("riak_client_operations_total",
			"Total number of answered operations", []string{"op"}, nil),
		getHits: prometheus.NewDesc("riak_client_get_hits_total",
			"Get operations that found a value", nil, nil),
		siblingsResolved: prometheus.NewDesc("riak_client_siblings_resolved_total",
			"Responses collapsed by a conflict resolver", nil, nil),
		errors: prometheus.NewDesc("riak_client_errors_total",
			"Total number of failed operations", nil, nil),
		queued: prometheus.NewDesc("riak_client_queued_requests_total",
			"Requests queued while disconnected", nil, nil),
		droppedResponses: prometheus.NewDesc("riak_client_dropped_responses_total",
			"Responses received with no pending request", nil, nil),
		connects: prometheus.NewDesc("riak_client_connects_total",
			"Successful connections", nil, nil),
		connectFailures: prometheus.NewDesc("riak_client_connect_failures_total",
			"Failed connection attempts", nil, nil),
		pending: prometheus.NewDesc("riak_client_pending_requests",
			"Requests waiting for a response", nil, nil),
		connected: prometheus.NewDesc("riak_client_connected",
			"Whether a connection is established (0 or 1)", nil, nil),
		circuitState: prometheus.NewDesc("riak_client_circuit_breaker_state",
			"Circuit breaker state (0=closed, 1=half-open, 2=open)", []string{"endpoint"}, nil),
	}
}

func (s *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- s.operations
	ch <- s.getHits
	ch <- s.siblingsResolved
	ch <- s.errors
	ch <- s.queued
	ch <- s.droppedResponses
	ch <- s.connects
	ch <- s.connectFailures
	ch <- s.pending
	ch <- s.connected
	ch <- s.circuitState
}

func (s *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats := s.client.Stats()

	counter := func(desc *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v), labels...)
	}
	counter(s.operations, stats.Gets, "get")
	counter(s.operations, stats.Puts, "put")
	counter(s.operations, stats.Deletes, "delete")
	counter(s.operations, stats.ListKeys, "list_keys")
	counter(s.getHits, stats.GetHits)
	counter(s.siblingsResolved, stats.SiblingsResolved)
	counter(s.errors, stats.Errors)
	counter(s.queued, stats.Queued)
	counter(s.droppedResponses, stats.DroppedResponses)
	counter(s.connects, stats.Connects)
	counter(s.connectFailures, stats.ConnectFailures)

	ch <- prometheus.MustNewConstMetric(s.pending, prometheus.GaugeValue, float64(s.client.Pending()))

	connected := 0.0
	if s.client.Connected() {
		connected = 1
	}
	ch <- prometheus.MustNewConstMetric(s.connected, prometheus.GaugeValue, connected)

	for endpoint, cb := range s.client.transport.breakers {
		ch <- prometheus.MustNewConstMetric(s.circuitState, prometheus.GaugeValue, float64(cb.State()), endpoint)
	}
}
