package riak

import (
	"fmt"
	"time"

	"github.com/pior/riak/pb"
)

// ListKeysOp lists the keys of a bucket. The store streams them in chunks;
// the future resolves once the last chunk arrived.
//
// Listing keys walks the whole key space of the cluster. It is meant for
// tooling, not for request paths.
type ListKeysOp struct {
	client  *Client
	bucket  string
	timeout *time.Duration
}

// ListKeys starts a listing of every key in bucket.
func ListKeys(c *Client, bucket string) ListKeysOp {
	return ListKeysOp{client: c, bucket: bucket}
}

// Timeout overrides the server-side timeout. Zero or less sends none.
func (op ListKeysOp) Timeout(d time.Duration) ListKeysOp {
	op.timeout = &d
	return op
}

func (op ListKeysOp) validate() error {
	if op.client == nil {
		return invalidArgument("nil client")
	}
	if op.bucket == "" {
		return invalidArgument("bucket is required")
	}
	return nil
}

// Commit sends the request. The future resolves to the keys in the order
// the store streamed them, empty for an empty bucket.
func (op ListKeysOp) Commit() *Future[[]string] {
	if err := op.validate(); err != nil {
		return failedFuture[[]string](err)
	}

	c := op.client
	req := &pb.ListKeysReq{
		Bucket:  []byte(op.bucket),
		Timeout: c.serverTimeout(op.timeout),
	}

	// Chunks arrive on the read goroutine, one at a time.
	keys := []string{}
	f := newFuture[[]string]()
	err := c.correlator.request(req, func(msg pb.Message, err error) {
		if err == nil {
			resp, ok := msg.(*pb.ListKeysResp)
			if ok {
				for _, k := range resp.Keys {
					keys = append(keys, string(k))
				}
				if pb.GetBool(resp.Done) {
					c.stats.recordListKeys()
					f.complete(keys, nil)
				}
				return
			}
			err = fmt.Errorf("riak: list keys %s: unexpected response %s", op.bucket, msg.Code())
		}
		c.stats.recordError()
		f.complete(nil, err)
	})
	if err != nil {
		c.stats.recordError()
		f.complete(nil, err)
	}
	return f
}
