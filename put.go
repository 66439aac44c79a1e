package riak

import (
	"fmt"
	"maps"
	"reflect"
	"time"

	"github.com/pior/riak/pb"
)

// PutOp stores one object. Build it with Put; each method returns a
// modified copy, and Commit sends the request.
type PutOp[T any] struct {
	client        *Client
	bucket        string
	key           string
	value         T
	quorum        Quorum
	hasQuorum     bool
	resolver      Resolver[T]
	ifNoneMatch   bool
	ifNotModified bool
	vclock        []byte
	returnHead    bool
	contentType   string
	metadata      map[string]string
	links         []Link
	timeout       *time.Duration
}

// Put prepares the write of value under bucket/key. An empty key lets the
// store generate one, unless value carries a key (see KeyBinder).
// A []byte value is stored without conversion.
func Put[T any](c *Client, bucket, key string, value T) PutOp[T] {
	return PutOp[T]{client: c, bucket: bucket, key: key, value: value}
}

// Quorum sets W, DW, PW and N.
func (op PutOp[T]) Quorum(q Quorum) PutOp[T] {
	op.quorum = q
	op.hasQuorum = true
	return op
}

// Resolver sets the function that collapses siblings found in the returned body.
func (op PutOp[T]) Resolver(r Resolver[T]) PutOp[T] {
	op.resolver = r
	return op
}

// IfNoneMatch fails the write if the key already exists.
func (op PutOp[T]) IfNoneMatch() PutOp[T] {
	op.ifNoneMatch = true
	return op
}

// IfNotModified fails the write if the stored vclock differs from the one sent.
func (op PutOp[T]) IfNotModified() PutOp[T] {
	op.ifNotModified = true
	return op
}

// VClock sets the vector clock sent with the write, taking precedence over
// the one carried by the value.
func (op PutOp[T]) VClock(vclock []byte) PutOp[T] {
	op.vclock = vclock
	return op
}

// ReturnBody sets whether the stored value is sent back (the default).
// When false only metadata is returned, and the entry holds the submitted value.
func (op PutOp[T]) ReturnBody(enabled bool) PutOp[T] {
	op.returnHead = !enabled
	return op
}

// ContentType overrides the client's default content type.
func (op PutOp[T]) ContentType(contentType string) PutOp[T] {
	op.contentType = contentType
	return op
}

// Metadata adds a user metadata pair.
func (op PutOp[T]) Metadata(key, value string) PutOp[T] {
	meta := make(map[string]string, len(op.metadata)+1)
	maps.Copy(meta, op.metadata)
	meta[key] = value
	op.metadata = meta
	return op
}

// Link adds a link to another object.
func (op PutOp[T]) Link(l Link) PutOp[T] {
	op.links = append(op.links[:len(op.links):len(op.links)], l)
	return op
}

// Timeout overrides the server-side timeout. Zero or less sends none.
func (op PutOp[T]) Timeout(d time.Duration) PutOp[T] {
	op.timeout = &d
	return op
}

func (op PutOp[T]) validate() error {
	if op.client == nil {
		return invalidArgument("nil client")
	}
	if op.bucket == "" {
		return invalidArgument("bucket is required")
	}
	if isNilValue(any(op.value)) {
		return invalidArgument("value is required")
	}
	return nil
}

// isNilValue reports whether v is nil or a nil pointer.
func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// resolvedKey is the key sent with the request, possibly empty.
func (op PutOp[T]) resolvedKey() string {
	if op.key != "" {
		return op.key
	}
	if b, ok := binderOf[KeyBinder](&op.value); ok {
		return b.RiakKey()
	}
	return ""
}

func (op PutOp[T]) resolvedVClock() []byte {
	if op.vclock != nil {
		return op.vclock
	}
	if b, ok := binderOf[VClockBinder](&op.value); ok {
		return b.RiakVClock()
	}
	return nil
}

// resolvedMetadata merges the value's metadata over the request's.
func (op PutOp[T]) resolvedMetadata() map[string]string {
	b, ok := binderOf[MetadataBinder](&op.value)
	if !ok {
		return op.metadata
	}
	bound := b.RiakMetadata()
	if len(bound) == 0 {
		return op.metadata
	}
	meta := make(map[string]string, len(op.metadata)+len(bound))
	maps.Copy(meta, op.metadata)
	maps.Copy(meta, bound)
	return meta
}

func (op PutOp[T]) message(key string) (*pb.PutReq, error) {
	c := op.client
	contentType := op.contentType
	if contentType == "" {
		contentType = c.defaultContentType
	}

	data, err := c.registry.marshalValue(contentType, any(op.value))
	if err != nil {
		return nil, err
	}

	req := &pb.PutReq{
		Bucket: []byte(op.bucket),
		Vclock: op.resolvedVClock(),
		Content: &pb.Content{
			Value:       data,
			ContentType: []byte(contentType),
			Links:       linksToPB(op.links),
			Usermeta:    metadataToPB(op.resolvedMetadata()),
		},
		Timeout: c.serverTimeout(op.timeout),
	}
	if key != "" {
		req.Key = []byte(key)
	}
	if op.returnHead {
		req.ReturnHead = pb.Bool(true)
	} else {
		req.ReturnBody = pb.Bool(true)
	}
	if op.ifNoneMatch {
		req.IfNoneMatch = pb.Bool(true)
	}
	if op.ifNotModified {
		req.IfNotModified = pb.Bool(true)
	}
	if op.hasQuorum {
		req.W = op.quorum.get(paramW)
		req.DW = op.quorum.get(paramDW)
		req.PW = op.quorum.get(paramPW)
		req.NVal = op.quorum.get(paramN)
	}
	return req, nil
}

// Commit sends the request. The future fails immediately when an argument
// is missing or the value cannot be converted.
func (op PutOp[T]) Commit() *Future[Entry[T]] {
	if err := op.validate(); err != nil {
		return failedFuture[Entry[T]](err)
	}

	c := op.client
	key := op.resolvedKey()
	req, err := op.message(key)
	if err != nil {
		c.stats.recordError()
		return failedFuture[Entry[T]](fmt.Errorf("riak: put %s/%s: %w", op.bucket, key, err))
	}

	f := newFuture[Entry[T]]()
	err = c.correlator.request(req, func(msg pb.Message, err error) {
		if err == nil {
			var entry Entry[T]
			entry, err = op.mapResponse(key, msg)
			if err == nil {
				c.stats.recordPut()
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

func (op PutOp[T]) mapResponse(key string, msg pb.Message) (Entry[T], error) {
	resp, ok := msg.(*pb.PutResp)
	if !ok {
		return Entry[T]{}, fmt.Errorf("riak: put %s/%s: unexpected response %s", op.bucket, key, msg.Code())
	}

	if key == "" {
		key = string(resp.Key)
	}
	entry := Entry[T]{
		Bucket:  op.bucket,
		Key:     key,
		Headers: Headers{VClock: resp.Vclock},
	}

	mapper := contentMapper[T]{client: op.client, resolver: op.resolver, headOnly: op.returnHead}
	if err := mapper.mapContents(&entry, resp.Content); err != nil {
		return Entry[T]{}, fmt.Errorf("riak: put %s/%s: %w", op.bucket, key, err)
	}
	if !entry.Found {
		entry.Data = op.value
		entry.Found = true
	}
	bindEntry(&entry)
	return entry, nil
}
