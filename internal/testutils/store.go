package testutils

import (
	"bytes"
	"encoding/binary"
	"sort"
	"strconv"
	"sync"

	"github.com/pior/riak/pb"
)

// Store is an in-memory key/value handler for Node. It keeps one version
// counter per key, encoded as the vclock, and supports injected siblings.
type Store struct {
	mu       sync.Mutex
	objects  map[string]map[string]*object
	nextKey  int
	KeysPage int // keys per ListKeysResp chunk, default 2
}

type object struct {
	contents []*pb.Content
	version  uint64
}

func NewStore() *Store {
	return &Store{objects: make(map[string]map[string]*object)}
}

// Handler returns the store as a Node handler.
func (s *Store) Handler() Handler {
	return s.Handle
}

// SetSiblings stores several concurrent values under one key.
func (s *Store) SetSiblings(bucket, key string, contents ...*pb.Content) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj := s.object(bucket, key, true)
	obj.contents = contents
	obj.version++
}

// Value returns the stored contents of a key.
func (s *Store) Value(bucket, key string) []*pb.Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obj := s.object(bucket, key, false); obj != nil {
		return obj.contents
	}
	return nil
}

func (s *Store) object(bucket, key string, create bool) *object {
	b, ok := s.objects[bucket]
	if !ok {
		if !create {
			return nil
		}
		b = make(map[string]*object)
		s.objects[bucket] = b
	}
	obj, ok := b[key]
	if !ok && create {
		obj = &object{}
		b[key] = obj
	}
	return obj
}

func vclockOf(version uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, version)
}

// Handle answers one request.
func (s *Store) Handle(req pb.Message) []pb.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch m := req.(type) {
	case *pb.PingReq:
		return []pb.Message{&pb.PingResp{}}

	case *pb.GetServerInfoReq:
		return []pb.Message{&pb.GetServerInfoResp{Node: []byte("riak@127.0.0.1"), ServerVersion: []byte("2.9.10")}}

	case *pb.GetReq:
		obj := s.object(string(m.Bucket), string(m.Key), false)
		if obj == nil || len(obj.contents) == 0 {
			return []pb.Message{&pb.GetResp{}}
		}
		vclock := vclockOf(obj.version)
		if m.IfModified != nil && bytes.Equal(m.IfModified, vclock) {
			return []pb.Message{&pb.GetResp{Vclock: vclock, Unchanged: pb.Bool(true)}}
		}
		contents := obj.contents
		if pb.GetBool(m.Head) {
			contents = headsOf(contents)
		}
		return []pb.Message{&pb.GetResp{Content: contents, Vclock: vclock}}

	case *pb.PutReq:
		key := string(m.Key)
		var generated []byte
		if key == "" {
			s.nextKey++
			key = "generated-" + strconv.Itoa(s.nextKey)
			generated = []byte(key)
		}

		existing := s.object(string(m.Bucket), key, false)
		if pb.GetBool(m.IfNoneMatch) && existing != nil && len(existing.contents) > 0 {
			return []pb.Message{&pb.ErrorResp{Errmsg: []byte("match_found")}}
		}
		if pb.GetBool(m.IfNotModified) && existing != nil && !bytes.Equal(m.Vclock, vclockOf(existing.version)) {
			return []pb.Message{&pb.ErrorResp{Errmsg: []byte("modified")}}
		}

		obj := s.object(string(m.Bucket), key, true)
		obj.version++
		obj.contents = []*pb.Content{m.Content}

		resp := &pb.PutResp{Vclock: vclockOf(obj.version), Key: generated}
		switch {
		case pb.GetBool(m.ReturnBody):
			resp.Content = obj.contents
		case pb.GetBool(m.ReturnHead):
			resp.Content = headsOf(obj.contents)
		}
		return []pb.Message{resp}

	case *pb.DelReq:
		if b, ok := s.objects[string(m.Bucket)]; ok {
			delete(b, string(m.Key))
		}
		return []pb.Message{&pb.DelResp{}}

	case *pb.ListKeysReq:
		var keys []string
		for k, obj := range s.objects[string(m.Bucket)] {
			if len(obj.contents) > 0 {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		page := s.KeysPage
		if page <= 0 {
			page = 2
		}
		var resps []pb.Message
		for len(keys) > 0 {
			n := min(page, len(keys))
			chunk := &pb.ListKeysResp{}
			for _, k := range keys[:n] {
				chunk.Keys = append(chunk.Keys, []byte(k))
			}
			resps = append(resps, chunk)
			keys = keys[n:]
		}
		return append(resps, &pb.ListKeysResp{Done: pb.Bool(true)})
	}

	return []pb.Message{&pb.ErrorResp{Errmsg: []byte("unsupported request " + req.Code().String()), Errcode: 1}}
}

func headsOf(contents []*pb.Content) []*pb.Content {
	heads := make([]*pb.Content, 0, len(contents))
	for _, c := range contents {
		h := *c
		h.Value = nil
		heads = append(heads, &h)
	}
	return heads
}
