package testutils

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pior/riak/pb"
)

// ConnectionMock is a mock implementation of net.Conn for testing.
//
// Reads return the pre-configured response frames, then block until the
// mock is closed. Writes are recorded.
type ConnectionMock struct {
	mu       sync.Mutex
	cond     *sync.Cond
	readBuf  *bytes.Buffer
	writeBuf *bytes.Buffer
	closed   bool
	addr     string
}

// NewConnectionMock creates a new mock connection with pre-configured responses
func NewConnectionMock(addr string, responses ...pb.Message) *ConnectionMock {
	m := &ConnectionMock{
		readBuf:  &bytes.Buffer{},
		writeBuf: &bytes.Buffer{},
		addr:     addr,
	}
	m.cond = sync.NewCond(&m.mu)
	for _, r := range responses {
		if err := pb.WriteFrame(m.readBuf, r); err != nil {
			panic(err)
		}
	}
	return m
}

// Respond appends response frames to be read.
func (m *ConnectionMock) Respond(responses ...pb.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range responses {
		if err := pb.WriteFrame(m.readBuf, r); err != nil {
			panic(err)
		}
	}
	m.cond.Broadcast()
}

func (m *ConnectionMock) Read(b []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.readBuf.Len() == 0 && !m.closed {
		m.cond.Wait()
	}
	if m.closed {
		return 0, net.ErrClosed
	}
	return m.readBuf.Read(b)
}

func (m *ConnectionMock) Write(b []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, net.ErrClosed
	}
	return m.writeBuf.Write(b)
}

func (m *ConnectionMock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.cond.Broadcast()
	return nil
}

// Closed reports whether Close was called.
func (m *ConnectionMock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *ConnectionMock) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0}
}

func (m *ConnectionMock) RemoteAddr() net.Addr {
	return mockAddr(m.addr)
}

func (m *ConnectionMock) SetDeadline(t time.Time) error      { return nil }
func (m *ConnectionMock) SetReadDeadline(t time.Time) error  { return nil }
func (m *ConnectionMock) SetWriteDeadline(t time.Time) error { return nil }

// Written decodes the frames written to the mock connection so far.
func (m *ConnectionMock) Written() ([]pb.Message, error) {
	m.mu.Lock()
	data := bytes.Clone(m.writeBuf.Bytes())
	m.mu.Unlock()

	r := bufio.NewReader(bytes.NewReader(data))
	var msgs []pb.Message
	for {
		msg, err := pb.ReadMessage(r)
		if err == io.EOF {
			return msgs, nil
		}
		if err != nil {
			return msgs, err
		}
		msgs = append(msgs, msg)
	}
}

type mockAddr string

func (a mockAddr) Network() string { return "tcp" }
func (a mockAddr) String() string  { return string(a) }
