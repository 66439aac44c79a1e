package riak

import (
	"fmt"
	"time"

	"github.com/pior/riak/pb"
)

// GetOp fetches one object. Build it with Get; each method returns a
// modified copy, and Commit sends the request.
//
//	entry, err := riak.Get[User](client, "users", "alice").
//		Quorum(riak.Quorum{}.R(2)).
//		Resolver(latestUser).
//		Commit().
//		Wait(ctx)
type GetOp[T any] struct {
	client     *Client
	bucket     string
	key        string
	quorum     Quorum
	hasQuorum  bool
	resolver   Resolver[T]
	ifModified []byte
	head       bool
	notFoundOK *bool
	timeout    *time.Duration
}

// Get prepares the fetch of bucket/key, decoded into a T.
// T may be []byte to receive stored bytes without conversion.
func Get[T any](c *Client, bucket, key string) GetOp[T] {
	return GetOp[T]{client: c, bucket: bucket, key: key}
}

// Quorum sets R, PR, N and BasicQuorum.
func (op GetOp[T]) Quorum(q Quorum) GetOp[T] {
	op.quorum = q
	op.hasQuorum = true
	return op
}

// Resolver sets the function that collapses siblings.
func (op GetOp[T]) Resolver(r Resolver[T]) GetOp[T] {
	op.resolver = r
	return op
}

// IfModified only returns the object when its vclock differs from vclock.
// Otherwise the entry is marked Unchanged.
func (op GetOp[T]) IfModified(vclock []byte) GetOp[T] {
	op.ifModified = vclock
	return op
}

// Head only fetches metadata.
func (op GetOp[T]) Head() GetOp[T] {
	op.head = true
	return op
}

// NotFoundOK sets whether a replica answering "not found" counts toward the read quorum.
func (op GetOp[T]) NotFoundOK(ok bool) GetOp[T] {
	op.notFoundOK = &ok
	return op
}

// Timeout overrides the server-side timeout. Zero or less sends none.
func (op GetOp[T]) Timeout(d time.Duration) GetOp[T] {
	op.timeout = &d
	return op
}

func (op GetOp[T]) validate() error {
	if op.client == nil {
		return invalidArgument("nil client")
	}
	if op.bucket == "" {
		return invalidArgument("bucket is required")
	}
	if op.key == "" {
		return invalidArgument("key is required")
	}
	return nil
}

func (op GetOp[T]) message() *pb.GetReq {
	req := &pb.GetReq{
		Bucket:     []byte(op.bucket),
		Key:        []byte(op.key),
		IfModified: op.ifModified,
		NotfoundOk: op.notFoundOK,
		Timeout:    op.client.serverTimeout(op.timeout),
	}
	if op.head {
		req.Head = pb.Bool(true)
	}
	if op.hasQuorum {
		req.R = op.quorum.get(paramR)
		req.PR = op.quorum.get(paramPR)
		req.NVal = op.quorum.get(paramN)
		req.BasicQuorum = pb.Bool(op.quorum.basicQuorum())
	}
	return req
}

// Commit sends the request. The future fails immediately when an argument
// is missing.
func (op GetOp[T]) Commit() *Future[Entry[T]] {
	if err := op.validate(); err != nil {
		return failedFuture[Entry[T]](err)
	}

	c := op.client
	f := newFuture[Entry[T]]()
	err := c.correlator.request(op.message(), func(msg pb.Message, err error) {
		if err == nil {
			var entry Entry[T]
			entry, err = op.mapResponse(msg)
			if err == nil {
				c.stats.recordGet(entry.Found)
				f.complete(entry, nil)
				return
			}
		}
		c.stats.recordError()
		f.complete(Entry[T]{}, err)
	})
	if err != nil {
		c.stats.recordError()
		f.complete(Entry[T]{}, err)
	}
	return f
}

func (op GetOp[T]) mapResponse(msg pb.Message) (Entry[T], error) {
	resp, ok := msg.(*pb.GetResp)
	if !ok {
		return Entry[T]{}, fmt.Errorf("riak: get %s/%s: unexpected response %s", op.bucket, op.key, msg.Code())
	}

	entry := Entry[T]{
		Bucket:  op.bucket,
		Key:     op.key,
		Headers: Headers{VClock: resp.Vclock},
	}
	if pb.GetBool(resp.Unchanged) {
		entry.Unchanged = true
		return entry, nil
	}

	mapper := contentMapper[T]{client: op.client, resolver: op.resolver, headOnly: op.head}
	if err := mapper.mapContents(&entry, resp.Content); err != nil {
		return Entry[T]{}, fmt.Errorf("riak: get %s/%s: %w", op.bucket, op.key, err)
	}
	bindEntry(&entry)
	return entry, nil
}
