package riak

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/edwingeng/deque/v2"
	"go.uber.org/zap"

	"github.com/pior/riak/internal/coarsetime"
	"github.com/pior/riak/pb"
)

// session is one live connection. A session that has been replaced or
// cleared is never written to again, and its events are ignored.
type session struct {
	conn     net.Conn
	endpoint Endpoint
}

// inbound receives what the transport reads from the network.
type inbound interface {
	deliver(msg pb.Message)
	disconnected(s *session, err error)
}

// transport owns the single connection to the store.
//
// Outbound frames go through one FIFO queue. While connected, a writer
// goroutine drains it to the connection; while disconnected, frames stay
// queued and are written first on the next connection.
type transport struct {
	policy    reconnectPolicy
	supervise bool
	timeout   time.Duration
	maxQueued int
	dial      func(ctx context.Context, network, addr string) (net.Conn, error)
	sleep     func(ctx context.Context, d time.Duration) error
	breakers  map[string]CircuitBreaker
	logger    *zap.Logger
	stats     *clientStatsCollector
	inbound   inbound

	mu      sync.Mutex
	cond    *sync.Cond
	session *session
	out     *deque.Deque[[]byte]
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type transportConfig struct {
	endpoints         []Endpoint
	timeout           time.Duration
	maxQueued         int
	dial              func(ctx context.Context, network, addr string) (net.Conn, error)
	sleep             func(ctx context.Context, d time.Duration) error
	newCircuitBreaker func(endpoint string) CircuitBreaker
	logger            *zap.Logger
	stats             *clientStatsCollector
}

func newTransport(cfg transportConfig) *transport {
	t := &transport{
		policy:    reconnectPolicy{endpoints: cfg.endpoints, delay: cfg.timeout},
		supervise: len(cfg.endpoints) > 0,
		timeout:   cfg.timeout,
		maxQueued: cfg.maxQueued,
		dial:      cfg.dial,
		sleep:     cfg.sleep,
		breakers:  make(map[string]CircuitBreaker),
		logger:    cfg.logger,
		stats:     cfg.stats,
		out:       deque.NewDeque[[]byte](),
	}
	t.cond = sync.NewCond(&t.mu)
	t.ctx, t.cancel = context.WithCancel(context.Background())

	if !t.supervise {
		t.policy.endpoints = []Endpoint{DefaultEndpoint}
	}

	if cfg.newCircuitBreaker != nil {
		for _, e := range t.policy.endpoints {
			addr := e.String()
			if _, ok := t.breakers[addr]; !ok {
				t.breakers[addr] = cfg.newCircuitBreaker(addr)
			}
		}
	}

	return t
}

// start connects to the store.
//
// With configured endpoints, the reconnect supervisor is started and start
// returns immediately; requests queue until a connection is up. Without,
// the default endpoint is dialed once and a failure is returned.
func (t *transport) start(ctx context.Context) error {
	if t.supervise {
		t.wg.Add(1)
		go t.superviseLoop()
		return nil
	}

	endpoint := t.policy.endpoints[0]
	s, err := t.connect(ctx, endpoint)
	if err != nil {
		t.stats.recordConnectFailure()
		return fmt.Errorf("riak: connect %s: %w", endpoint, err)
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.readLoop(s)
		t.logger.Warn("connection lost, no endpoints configured for reconnection", zap.Stringer("endpoint", endpoint))
	}()
	return nil
}

// superviseLoop connects, reads until the connection ends, and reconnects,
// until the transport is closed.
func (t *transport) superviseLoop() {
	defer t.wg.Done()

	attempt := 0
	for {
		endpoint, delay := t.policy.next(attempt)
		if err := t.sleep(t.ctx, delay); err != nil {
			return
		}

		s, err := t.connect(t.ctx, endpoint)
		if err != nil {
			if t.ctx.Err() != nil {
				return
			}
			t.stats.recordConnectFailure()
			t.logger.Warn("connect failed",
				zap.Stringer("endpoint", endpoint),
				zap.Int("attempt", attempt),
				zap.Error(err))
			attempt++
			continue
		}

		attempt = 0
		t.readLoop(s)
		if t.ctx.Err() != nil {
			return
		}
	}
}

// connect dials endpoint and installs the connection.
func (t *transport) connect(ctx context.Context, endpoint Endpoint) (*session, error) {
	addr := endpoint.String()

	dial := func() (net.Conn, error) {
		ctx, cancel := context.WithTimeout(ctx, t.timeout)
		defer cancel()
		return t.dial(ctx, "tcp", addr)
	}

	var conn net.Conn
	var err error
	if cb := t.breakers[addr]; cb != nil {
		conn, err = cb.Execute(dial)
	} else {
		conn, err = dial()
	}
	if err != nil {
		return nil, err
	}

	s := &session{conn: conn, endpoint: endpoint}
	if err := t.install(s); err != nil {
		_ = conn.Close()
		return nil, err
	}

	t.stats.recordConnect()
	t.logger.Info("connected", zap.Stringer("endpoint", endpoint))
	return s, nil
}

// install makes s the current session and starts its writer. Frames queued
// while disconnected are written before any frame sent afterwards.
func (t *transport) install(s *session) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClientClosed
	}

	if n := t.out.Len(); n > 0 {
		t.logger.Debug("replaying queued requests", zap.Int("count", n), zap.Stringer("endpoint", s.endpoint))
	}

	t.session = s
	t.wg.Add(1)
	go t.writeLoop(s)
	return nil
}

// send queues frame for writing. It never blocks on network I/O.
// Callers hold the correlator lock, so frames are queued in request order.
func (t *transport) send(frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClientClosed
	}

	if t.session == nil {
		if t.maxQueued > 0 && t.out.Len() >= t.maxQueued {
			return fmt.Errorf("%w: %d requests already queued", ErrConnectionUnavailable, t.out.Len())
		}
		t.stats.recordQueued()
	}

	t.out.PushBack(frame)
	t.cond.Broadcast()
	return nil
}

// writeLoop writes queued frames to s until s stops being the current session.
func (t *transport) writeLoop(s *session) {
	defer t.wg.Done()

	for {
		t.mu.Lock()
		for t.session == s && t.out.IsEmpty() {
			t.cond.Wait()
		}
		if t.session != s {
			t.mu.Unlock()
			return
		}
		frames := make(net.Buffers, 0, t.out.Len())
		for !t.out.IsEmpty() {
			frames = append(frames, t.out.PopFront())
		}
		t.mu.Unlock()

		if t.timeout > 0 {
			_ = s.conn.SetWriteDeadline(coarsetime.Deadline(t.timeout))
		}
		if _, err := frames.WriteTo(s.conn); err != nil {
			// The read loop sees the closed connection and reports it.
			t.logger.Warn("write failed", zap.Stringer("endpoint", s.endpoint), zap.Error(err))
			_ = s.conn.Close()
			return
		}
	}
}

// readLoop decodes frames from s and hands them to the inbound side until
// the connection fails.
func (t *transport) readLoop(s *session) {
	r := bufio.NewReader(s.conn)
	for {
		msg, err := pb.ReadMessage(r)
		if err != nil {
			if _, ok := err.(*pb.DecodeError); ok {
				t.logger.Error("closing connection after decode failure", zap.Stringer("endpoint", s.endpoint), zap.Error(err))
			} else if t.ctx.Err() == nil {
				t.logger.Warn("connection closed", zap.Stringer("endpoint", s.endpoint), zap.Error(err))
			}
			_ = s.conn.Close()
			t.inbound.disconnected(s, err)
			return
		}
		t.inbound.deliver(msg)
	}
}

// detach clears s if it is still the current session. Frames not yet
// written are discarded: the requests they belong to are failed by the
// caller, which holds the correlator lock.
func (t *transport) detach(s *session) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session != s || s == nil {
		return false
	}
	t.session = nil
	t.out = deque.NewDeque[[]byte]()
	t.cond.Broadcast()
	_ = s.conn.Close()
	return true
}

// shutdown stops the transport. Goroutines exit asynchronously, see wait.
func (t *transport) shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true
	t.cancel()
	if t.session != nil {
		_ = t.session.conn.Close()
		t.session = nil
	}
	t.out = deque.NewDeque[[]byte]()
	t.cond.Broadcast()
}

func (t *transport) wait() {
	t.wg.Wait()
}

func (t *transport) connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session != nil
}

func (t *transport) queued() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.out.Len()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
