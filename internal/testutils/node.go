package testutils

import (
	"bufio"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/pior/riak/pb"
)

// Handler answers one request with zero or more response frames.
type Handler func(req pb.Message) []pb.Message

// Node is a fake store node listening on a local TCP port.
type Node struct {
	t        testing.TB
	listener net.Listener
	handler  Handler

	mu       sync.Mutex
	received []pb.Message
	conns    []net.Conn
	accepts  int
	signal   chan struct{}
}

// NewNode starts a node answering with handler. It is closed with the test.
func NewNode(t testing.TB, handler Handler) *Node {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to start test node: %v", err)
	}

	n := &Node{
		t:        t,
		listener: listener,
		handler:  handler,
		signal:   make(chan struct{}, 1),
	}
	t.Cleanup(n.Close)

	go n.acceptLoop()
	return n
}

// Addr returns the "host:port" address of the node.
func (n *Node) Addr() string {
	return n.listener.Addr().String()
}

// HostPort returns the host and port of the node.
func (n *Node) HostPort() (string, int) {
	addr := n.listener.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

// Port returns the port of the node as a string.
func (n *Node) Port() string {
	_, port := n.HostPort()
	return strconv.Itoa(port)
}

func (n *Node) acceptLoop() {
	for {
		conn, err := n.listener.Accept()
		if err != nil {
			return
		}

		n.mu.Lock()
		n.conns = append(n.conns, conn)
		n.accepts++
		n.mu.Unlock()
		n.notify()

		go n.serve(conn)
	}
}

func (n *Node) serve(conn net.Conn) {
	defer conn.Close()

	r := bufio.NewReader(conn)
	for {
		req, err := pb.ReadMessage(r)
		if err != nil {
			return
		}

		n.mu.Lock()
		n.received = append(n.received, req)
		n.mu.Unlock()
		n.notify()

		if n.handler == nil {
			continue
		}
		for _, resp := range n.handler(req) {
			if err := pb.WriteFrame(conn, resp); err != nil {
				return
			}
		}
	}
}

func (n *Node) notify() {
	select {
	case n.signal <- struct{}{}:
	default:
	}
}

// Received returns the requests received so far, in order.
func (n *Node) Received() []pb.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]pb.Message(nil), n.received...)
}

// Accepts returns the number of connections accepted so far.
func (n *Node) Accepts() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.accepts
}

// WaitFor polls cond until it returns true, failing the test after timeout.
func (n *Node) WaitFor(timeout time.Duration, cond func() bool) {
	n.t.Helper()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for !cond() {
		select {
		case <-n.signal:
		case <-time.After(5 * time.Millisecond):
		case <-deadline.C:
			n.t.Fatalf("condition not met within %s", timeout)
			return
		}
	}
}

// WaitReceived waits until count requests have been received.
func (n *Node) WaitReceived(count int, timeout time.Duration) []pb.Message {
	n.t.Helper()
	n.WaitFor(timeout, func() bool { return len(n.Received()) >= count })
	return n.Received()
}

// DropConnections closes the connections accepted so far.
func (n *Node) DropConnections() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range n.conns {
		_ = c.Close()
	}
	n.conns = nil
}

// Close stops listening and drops all connections.
func (n *Node) Close() {
	_ = n.listener.Close()
	n.DropConnections()
}
