package riak

import (
	"fmt"
	"sync"

	"github.com/edwingeng/deque/v2"
	"go.uber.org/zap"

	"github.com/pior/riak/pb"
)

// responseHandler consumes the outcome of one request: a response message,
// or the error that ends the request. Streaming requests receive one call
// per response frame.
type responseHandler func(msg pb.Message, err error)

// correlator matches responses to the requests that caused them.
type correlator interface {
	inbound

	// request registers h and sends msg, atomically with respect to other
	// requests. An error means the request was not sent and h will not be called.
	request(msg pb.Message, h responseHandler) error

	// pending returns the number of requests waiting for a response.
	pending() int

	// close fails all pending requests with err and stops the transport.
	close(err error)
}

// sender is the transport side of the correlator.
type sender interface {
	send(frame []byte) error
	detach(s *session) bool
	shutdown()
}

// fifoCorrelator relies on the store answering requests in the order they
// were written to the connection: the protocol carries no request id.
// The wait queue is never reordered.
type fifoCorrelator struct {
	sender  sender
	logger  *zap.Logger
	stats   *clientStatsCollector
	onError func(error)

	mu      sync.Mutex
	waiting *deque.Deque[responseHandler]
}

var _ correlator = (*fifoCorrelator)(nil)

func newFIFOCorrelator(s sender, logger *zap.Logger, stats *clientStatsCollector, onError func(error)) *fifoCorrelator {
	return &fifoCorrelator{
		sender:  s,
		logger:  logger,
		stats:   stats,
		onError: onError,
		waiting: deque.NewDeque[responseHandler](),
	}
}

func (c *fifoCorrelator) request(msg pb.Message, h responseHandler) error {
	frame, err := pb.Encode(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.waiting.PushBack(h)
	if err := c.sender.send(frame); err != nil {
		c.waiting.PopBack()
		return err
	}
	return nil
}

func (c *fifoCorrelator) deliver(msg pb.Message) {
	c.mu.Lock()
	if c.waiting.IsEmpty() {
		c.mu.Unlock()
		c.dropped(msg)
		return
	}

	h, _ := c.waiting.Front()
	errResp, isError := msg.(*pb.ErrorResp)
	if isError || isFinal(msg) {
		c.waiting.PopFront()
	}
	c.mu.Unlock()

	// Handlers run outside the lock: they may convert values, call
	// resolvers and issue new requests.
	if isError {
		h(nil, errResp.Err())
		return
	}
	h(msg, nil)
}

func (c *fifoCorrelator) dropped(msg pb.Message) {
	c.stats.recordDroppedResponse()

	err := fmt.Errorf("riak: response %s received with no pending request", msg.Code())
	if e, ok := msg.(*pb.ErrorResp); ok {
		err = fmt.Errorf("riak: error received with no pending request: %w", e.Err())
	}
	c.logger.Warn("dropping response", zap.Stringer("code", msg.Code()), zap.Error(err))
	if c.onError != nil {
		c.onError(err)
	}
}

func (c *fifoCorrelator) disconnected(s *session, cause error) {
	c.mu.Lock()
	if !c.sender.detach(s) {
		c.mu.Unlock()
		return
	}
	handlers := c.drain()
	c.mu.Unlock()

	if len(handlers) > 0 {
		c.logger.Warn("failing requests pending on lost connection",
			zap.Int("count", len(handlers)),
			zap.Stringer("endpoint", s.endpoint))
	}

	err := fmt.Errorf("%w: %v", ErrConnectionLost, cause)
	for _, h := range handlers {
		h(nil, err)
	}
}

func (c *fifoCorrelator) close(err error) {
	c.mu.Lock()
	c.sender.shutdown()
	handlers := c.drain()
	c.mu.Unlock()

	for _, h := range handlers {
		h(nil, err)
	}
}

func (c *fifoCorrelator) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiting.Len()
}

// drain empties the wait queue. Callers hold c.mu.
func (c *fifoCorrelator) drain() []responseHandler {
	handlers := make([]responseHandler, 0, c.waiting.Len())
	for !c.waiting.IsEmpty() {
		handlers = append(handlers, c.waiting.PopFront())
	}
	return handlers
}

// isFinal reports whether msg is the last response of its request.
// Only listing responses are streamed.
func isFinal(msg pb.Message) bool {
	switch m := msg.(type) {
	case *pb.ListKeysResp:
		return pb.GetBool(m.Done)
	case *pb.ListBucketsResp:
		return m.Done == nil || *m.Done
	}
	return true
}
