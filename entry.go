package riak

import (
	"time"

	"github.com/pior/riak/pb"
)

// Entry is the result of a Get or a Put.
type Entry[T any] struct {
	Bucket  string
	Key     string
	Headers Headers
	Data    T

	// Found reports whether Data holds a value. It is false when a Get
	// found nothing or only returned metadata. After a Put, Data is the
	// returned body, or the submitted value when no body was requested.
	Found bool

	// Unchanged is set when a conditional Get found the object not modified
	// since the given vclock. Data is not set and Found is false.
	Unchanged bool
}

// Headers is the metadata that comes with a value.
//
// VClock is always set when the store returns one. The other fields
// describe a single value and are left empty when siblings were resolved.
type Headers struct {
	VClock          []byte
	ContentType     string
	Charset         string
	ContentEncoding string
	VTag            string
	LastModified    time.Time
	Metadata        map[string]string
	Links           []Link
}

// Link points at another object.
type Link struct {
	Bucket string
	Key    string
	Tag    string
}

func (h *Headers) fromContent(c *pb.Content) {
	h.ContentType = string(c.ContentType)
	h.Charset = string(c.Charset)
	h.ContentEncoding = string(c.ContentEncoding)
	h.VTag = string(c.Vtag)
	if c.LastMod != nil {
		h.LastModified = time.Unix(int64(*c.LastMod), int64(pb.GetUint32(c.LastModUsecs))*int64(time.Microsecond))
	}
	if len(c.Usermeta) > 0 {
		h.Metadata = make(map[string]string, len(c.Usermeta))
		for _, p := range c.Usermeta {
			h.Metadata[string(p.Key)] = string(p.Value)
		}
	}
	for _, l := range c.Links {
		h.Links = append(h.Links, Link{Bucket: string(l.Bucket), Key: string(l.Key), Tag: string(l.Tag)})
	}
}

func linksToPB(links []Link) []*pb.Link {
	if len(links) == 0 {
		return nil
	}
	out := make([]*pb.Link, 0, len(links))
	for _, l := range links {
		out = append(out, &pb.Link{Bucket: []byte(l.Bucket), Key: []byte(l.Key), Tag: []byte(l.Tag)})
	}
	return out
}

func metadataToPB(meta map[string]string) []*pb.Pair {
	if len(meta) == 0 {
		return nil
	}
	out := make([]*pb.Pair, 0, len(meta))
	for k, v := range meta {
		out = append(out, &pb.Pair{Key: []byte(k), Value: []byte(v)})
	}
	return out
}
