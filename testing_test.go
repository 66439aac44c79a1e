package riak

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pior/riak/internal/testutils"
	"github.com/pior/riak/pb"
)

const testWait = 2 * time.Second

// newTestClient starts a client connected to node.
func newTestClient(t testing.TB, node *testutils.Node, mutate ...func(*Config)) *Client {
	t.Helper()

	host, port := node.HostPort()
	config := Config{
		Endpoints: []Endpoint{{Host: host, Port: port}},
		Timeout:   time.Second,
	}
	for _, m := range mutate {
		m(&config)
	}

	client, err := New(config)
	require.NoError(t, err)
	require.NoError(t, client.Start(t.Context()))
	t.Cleanup(func() { _ = client.Close() })

	waitUntil(t, client.Connected, "client should connect")
	return client
}

// newStoreClient starts a fake node backed by an in-memory store, and a client connected to it.
func newStoreClient(t testing.TB, mutate ...func(*Config)) (*Client, *testutils.Store, *testutils.Node) {
	t.Helper()
	store := testutils.NewStore()
	node := testutils.NewNode(t, store.Handler())
	return newTestClient(t, node, mutate...), store, node
}

func wait[T any](t testing.TB, f *Future[T]) (T, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testWait)
	defer cancel()
	v, err := f.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "future not completed in time")
	return v, err
}

func waitUntil(t testing.TB, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, testWait, time.Millisecond, msg)
}

func jsonContent(value string) *pb.Content {
	return &pb.Content{Value: []byte(value), ContentType: []byte("application/json")}
}

// recorder collects the outcomes delivered to response handlers.
type recorder struct {
	mu       sync.Mutex
	outcomes []outcome
}

type outcome struct {
	id  string
	msg pb.Message
	err error
}

func (r *recorder) handler(id string) responseHandler {
	return func(msg pb.Message, err error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.outcomes = append(r.outcomes, outcome{id: id, msg: msg, err: err})
	}
}

func (r *recorder) all() []outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]outcome(nil), r.outcomes...)
}

type user struct {
	Name  string `json:"name"`
	Email string `json:"email"`

	key    string
	vclock []byte
	meta   map[string]string
}

func (u *user) RiakKey() string                        { return u.key }
func (u *user) SetRiakKey(key string)                  { u.key = key }
func (u *user) RiakVClock() []byte                     { return u.vclock }
func (u *user) SetRiakVClock(vclock []byte)            { u.vclock = vclock }
func (u *user) RiakMetadata() map[string]string        { return u.meta }
func (u *user) SetRiakMetadata(meta map[string]string) { u.meta = meta }
