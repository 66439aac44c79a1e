package riak

import (
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pior/riak/pb"
)

type fakeSender struct {
	mu       sync.Mutex
	frames   [][]byte
	err      error
	current  *session
	shutDown bool
}

func (s *fakeSender) send(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, frame)
	return nil
}

func (s *fakeSender) detach(sess *session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess == nil || s.current != sess {
		return false
	}
	s.current = nil
	return true
}

func (s *fakeSender) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutDown = true
}

func newTestCorrelator(s sender) (*fifoCorrelator, *observer.ObservedLogs, *[]error) {
	core, logs := observer.New(zap.DebugLevel)
	var errs []error
	c := newFIFOCorrelator(s, zap.New(core), newClientStatsCollector(), func(err error) {
		errs = append(errs, err)
	})
	return c, logs, &errs
}

func TestCorrelator_FIFO(t *testing.T) {
	s := &fakeSender{}
	c, _, _ := newTestCorrelator(s)
	rec := &recorder{}

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, c.request(&pb.GetReq{Bucket: []byte("b"), Key: []byte(id)}, rec.handler(id)))
	}
	assert.Len(t, s.frames, 3)
	assert.Equal(t, 3, c.pending())

	for _, vclock := range []string{"a", "b", "c"} {
		c.deliver(&pb.GetResp{Vclock: []byte(vclock)})
	}

	outcomes := rec.all()
	require.Len(t, outcomes, 3)
	for _, o := range outcomes {
		require.NoError(t, o.err)
		assert.Equal(t, o.id, string(o.msg.(*pb.GetResp).Vclock))
	}
	assert.Equal(t, 0, c.pending())
}

func TestCorrelator_FramesSentInRequestOrder(t *testing.T) {
	s := &fakeSender{}
	c, _, _ := newTestCorrelator(s)

	require.NoError(t, c.request(&pb.PingReq{}, func(pb.Message, error) {}))
	require.NoError(t, c.request(&pb.GetServerInfoReq{}, func(pb.Message, error) {}))

	require.Len(t, s.frames, 2)
	assert.Equal(t, byte(pb.CodePingReq), s.frames[0][4])
	assert.Equal(t, byte(pb.CodeGetServerInfoReq), s.frames[1][4])
}

func TestCorrelator_ErrorRetiresHead(t *testing.T) {
	c, _, _ := newTestCorrelator(&fakeSender{})
	rec := &recorder{}

	require.NoError(t, c.request(&pb.PutReq{Bucket: []byte("b")}, rec.handler("put")))
	require.NoError(t, c.request(&pb.PingReq{}, rec.handler("ping")))

	c.deliver(&pb.ErrorResp{Errmsg: []byte("match_found")})
	c.deliver(&pb.PingResp{})

	outcomes := rec.all()
	require.Len(t, outcomes, 2)

	assert.Equal(t, "put", outcomes[0].id)
	var serverErr *pb.ServerError
	require.ErrorAs(t, outcomes[0].err, &serverErr)
	assert.Equal(t, "match_found", serverErr.Message)

	assert.Equal(t, "ping", outcomes[1].id)
	assert.NoError(t, outcomes[1].err)
	assert.IsType(t, &pb.PingResp{}, outcomes[1].msg)
}

func TestCorrelator_DropsUnexpectedResponse(t *testing.T) {
	c, logs, errs := newTestCorrelator(&fakeSender{})

	c.deliver(&pb.PingResp{})
	c.deliver(&pb.ErrorResp{Errmsg: []byte("boom")})

	assert.Equal(t, 2, logs.FilterMessage("dropping response").Len())
	require.Len(t, *errs, 2)
	var serverErr *pb.ServerError
	assert.ErrorAs(t, (*errs)[1], &serverErr)
	assert.Equal(t, uint64(2), c.stats.snapshot().DroppedResponses)
}

func TestCorrelator_StreamingHoldsHead(t *testing.T) {
	c, _, _ := newTestCorrelator(&fakeSender{})
	rec := &recorder{}

	require.NoError(t, c.request(&pb.ListKeysReq{Bucket: []byte("b")}, rec.handler("list")))
	require.NoError(t, c.request(&pb.PingReq{}, rec.handler("ping")))

	c.deliver(&pb.ListKeysResp{Keys: [][]byte{[]byte("k1")}})
	c.deliver(&pb.ListKeysResp{Keys: [][]byte{[]byte("k2")}})
	assert.Equal(t, 2, c.pending())

	c.deliver(&pb.ListKeysResp{Done: pb.Bool(true)})
	assert.Equal(t, 1, c.pending())

	c.deliver(&pb.PingResp{})

	var ids []string
	for _, o := range rec.all() {
		ids = append(ids, o.id)
	}
	assert.Equal(t, []string{"list", "list", "list", "ping"}, ids)
}

func TestCorrelator_DisconnectFailsPending(t *testing.T) {
	sess := &session{endpoint: Endpoint{Host: "a", Port: 8087}}
	s := &fakeSender{current: sess}
	c, _, _ := newTestCorrelator(s)
	rec := &recorder{}

	require.NoError(t, c.request(&pb.PingReq{}, rec.handler("a")))
	require.NoError(t, c.request(&pb.PingReq{}, rec.handler("b")))

	// A stale session is ignored.
	c.disconnected(&session{}, io.EOF)
	assert.Empty(t, rec.all())
	assert.Equal(t, 2, c.pending())

	c.disconnected(sess, io.EOF)
	outcomes := rec.all()
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.ErrorIs(t, o.err, ErrConnectionLost)
		assert.ErrorIs(t, o.err, ErrConnectionUnavailable)
	}
	assert.Equal(t, 0, c.pending())

	// Reported once only.
	c.disconnected(sess, io.EOF)
	assert.Len(t, rec.all(), 2)
}

func TestCorrelator_SendFailure(t *testing.T) {
	sendErr := errors.New("queue full")
	c, _, _ := newTestCorrelator(&fakeSender{err: sendErr})

	called := false
	err := c.request(&pb.PingReq{}, func(pb.Message, error) { called = true })
	require.ErrorIs(t, err, sendErr)
	assert.False(t, called)
	assert.Equal(t, 0, c.pending())
}

func TestCorrelator_EncodeFailure(t *testing.T) {
	s := &fakeSender{}
	c, _, _ := newTestCorrelator(s)

	err := c.request(&pb.RawMessage{MsgCode: 99}, func(pb.Message, error) {})
	require.Error(t, err)
	assert.Empty(t, s.frames)
	assert.Equal(t, 0, c.pending())
}

func TestCorrelator_Close(t *testing.T) {
	s := &fakeSender{}
	c, _, _ := newTestCorrelator(s)
	rec := &recorder{}

	require.NoError(t, c.request(&pb.PingReq{}, rec.handler("a")))
	c.close(ErrClientClosed)

	assert.True(t, s.shutDown)
	outcomes := rec.all()
	require.Len(t, outcomes, 1)
	assert.ErrorIs(t, outcomes[0].err, ErrClientClosed)
}
