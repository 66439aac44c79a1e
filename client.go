package riak

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pior/riak/pb"
)

// Client is an asynchronous client for the store's protocol-buffers interface.
//
// All operations share one connection. Requests are answered in the order
// they were sent; any number of goroutines may issue them concurrently.
// Requests issued while disconnected are queued and sent once connected.
type Client struct {
	logger             *zap.Logger
	registry           *Registry
	transport          *transport
	correlator         correlator
	stats              *clientStatsCollector
	timeout            time.Duration
	defaultContentType string

	startOnce sync.Once
	closeOnce sync.Once
}

// New creates a client. Call Start to connect.
func New(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config = config.withDefaults()

	stats := newClientStatsCollector()
	t := newTransport(transportConfig{
		endpoints:         config.Endpoints,
		timeout:           config.Timeout,
		maxQueued:         config.MaxQueuedRequests,
		dial:              config.dial,
		sleep:             config.sleep,
		newCircuitBreaker: config.NewCircuitBreaker,
		logger:            config.Logger,
		stats:             stats,
	})
	corr := newFIFOCorrelator(t, config.Logger, stats, config.OnError)
	t.inbound = corr

	return &Client{
		logger:             config.Logger,
		registry:           NewRegistry(config.Converters...),
		transport:          t,
		correlator:         corr,
		stats:              stats,
		timeout:            config.Timeout,
		defaultContentType: config.DefaultContentType,
	}, nil
}

// Start connects to the store.
//
// With endpoints configured, connection and reconnection happen in the
// background and Start returns immediately. Otherwise Start dials
// localhost:8087 once and returns the connection error, if any.
func (c *Client) Start(ctx context.Context) error {
	err := fmt.Errorf("riak: client already started")
	c.startOnce.Do(func() {
		err = c.transport.start(ctx)
	})
	return err
}

// Close disconnects and fails all pending requests with ErrClientClosed.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.correlator.close(ErrClientClosed)
		c.transport.wait()
	})
	return nil
}

// Registry returns the converter registry. Converters may be registered at
// any time.
func (c *Client) Registry() *Registry {
	return c.registry
}

// Stats returns a snapshot of the client statistics.
func (c *Client) Stats() ClientStats {
	return c.stats.snapshot()
}

// Pending returns the number of requests waiting for a response, queued
// ones included.
func (c *Client) Pending() int {
	return c.correlator.pending()
}

// Connected reports whether a connection is currently established.
func (c *Client) Connected() bool {
	return c.transport.connected()
}

// serverTimeout returns the timeout field of a request: the override when
// set, the client timeout otherwise. Positive durations are clamped to
// [1ms, MaxUint32 ms] so they never read as "no timeout".
func (c *Client) serverTimeout(override *time.Duration) *uint32 {
	d := c.timeout
	if override != nil {
		d = *override
	}
	if d <= 0 {
		return nil
	}
	return pb.Uint32(uint32(min(max(d.Milliseconds(), 1), math.MaxUint32)))
}

// Ping checks that the store answers.
func (c *Client) Ping(ctx context.Context) error {
	f := newFuture[struct{}]()
	err := c.correlator.request(&pb.PingReq{}, func(msg pb.Message, err error) {
		if err == nil {
			if _, ok := msg.(*pb.PingResp); !ok {
				err = fmt.Errorf("riak: ping: unexpected response %s", msg.Code())
			}
		}
		if err != nil {
			c.stats.recordError()
		}
		f.complete(struct{}{}, err)
	})
	if err != nil {
		c.stats.recordError()
		return err
	}
	_, err = f.Wait(ctx)
	return err
}

// ServerInfo describes the node the client is connected to.
type ServerInfo struct {
	Node    string
	Version string
}

// ServerInfo asks the connected node for its name and version.
func (c *Client) ServerInfo(ctx context.Context) (ServerInfo, error) {
	f := newFuture[ServerInfo]()
	err := c.correlator.request(&pb.GetServerInfoReq{}, func(msg pb.Message, err error) {
		if err == nil {
			if resp, ok := msg.(*pb.GetServerInfoResp); ok {
				f.complete(ServerInfo{Node: string(resp.Node), Version: string(resp.ServerVersion)}, nil)
				return
			}
			err = fmt.Errorf("riak: server info: unexpected response %s", msg.Code())
		}
		c.stats.recordError()
		f.complete(ServerInfo{}, err)
	})
	if err != nil {
		c.stats.recordError()
		return ServerInfo{}, err
	}
	return f.Wait(ctx)
}
