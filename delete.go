package riak

import (
	"fmt"
	"time"

	"github.com/pior/riak/pb"
)

// DeleteOp removes one object. Build it with Delete; each method returns a
// modified copy, and Commit sends the request.
type DeleteOp struct {
	client    *Client
	bucket    string
	key       string
	quorum    Quorum
	hasQuorum bool
	vclock    []byte
	timeout   *time.Duration
}

// Delete starts a delete of bucket/key.
func Delete(c *Client, bucket, key string) DeleteOp {
	return DeleteOp{client: c, bucket: bucket, key: key}
}

// Quorum sets W, DW, R, RW, PR, PW and N.
func (op DeleteOp) Quorum(q Quorum) DeleteOp {
	op.quorum = q
	op.hasQuorum = true
	return op
}

// VClock sends the vclock of the version being deleted.
func (op DeleteOp) VClock(vclock []byte) DeleteOp {
	op.vclock = vclock
	return op
}

// Timeout overrides the server-side timeout. Zero or less sends none.
func (op DeleteOp) Timeout(d time.Duration) DeleteOp {
	op.timeout = &d
	return op
}

func (op DeleteOp) validate() error {
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

func (op DeleteOp) message() *pb.DelReq {
	req := &pb.DelReq{
		Bucket:  []byte(op.bucket),
		Key:     []byte(op.key),
		Vclock:  op.vclock,
		Timeout: op.client.serverTimeout(op.timeout),
	}
	if op.hasQuorum {
		req.W = op.quorum.get(paramW)
		req.DW = op.quorum.get(paramDW)
		req.R = op.quorum.get(paramR)
		req.RW = op.quorum.get(paramRW)
		req.PR = op.quorum.get(paramPR)
		req.PW = op.quorum.get(paramPW)
		req.NVal = op.quorum.get(paramN)
	}
	return req
}

// Commit sends the request. The future resolves to nil on success.
func (op DeleteOp) Commit() *Future[struct{}] {
	if err := op.validate(); err != nil {
		return failedFuture[struct{}](err)
	}

	c := op.client
	f := newFuture[struct{}]()
	err := c.correlator.request(op.message(), func(msg pb.Message, err error) {
		if err == nil {
			if _, ok := msg.(*pb.DelResp); ok {
				c.stats.recordDelete()
				f.complete(struct{}{}, nil)
				return
			}
			err = fmt.Errorf("riak: delete %s/%s: unexpected response %s", op.bucket, op.key, msg.Code())
		}
		c.stats.recordError()
		f.complete(struct{}{}, err)
	})
	if err != nil {
		c.stats.recordError()
		f.complete(struct{}{}, err)
	}
	return f
}
