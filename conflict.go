package riak

import (
	"github.com/pior/riak/pb"
)

// Resolver collapses sibling values into one. It is only called when the
// store returns more than one value for a key.
//
// Resolvers run on the client's read goroutine: they must not wait on
// another Future of the same client.
type Resolver[T any] func(siblings []T) (T, error)

// contentMapper interprets the contents of a Get or Put response.
type contentMapper[T any] struct {
	client   *Client
	resolver Resolver[T]
	headOnly bool // values were not requested, only metadata
}

// mapContents decodes each live content and collapses siblings.
//
// Headers describe the value only when there is exactly one; VClock is
// always set.
func (m contentMapper[T]) mapContents(entry *Entry[T], contents []*pb.Content) error {
	live := contents[:0:0]
	for _, c := range contents {
		if !pb.GetBool(c.Deleted) {
			live = append(live, c)
		}
	}

	switch len(live) {
	case 0:
		entry.Found = false
		return nil

	case 1:
		if m.headOnly {
			entry.Headers.fromContent(live[0])
			return nil
		}
		v, err := m.decode(live[0])
		if err != nil {
			return err
		}
		entry.Headers.fromContent(live[0])
		entry.Data = v
		entry.Found = true
		return nil
	}

	if m.headOnly {
		return nil
	}
	if m.resolver == nil {
		return ErrSiblingsWithoutResolver
	}

	siblings := make([]T, 0, len(live))
	for _, c := range live {
		v, err := m.decode(c)
		if err != nil {
			return err
		}
		siblings = append(siblings, v)
	}

	v, err := m.resolver(siblings)
	if err != nil {
		return err
	}
	m.client.stats.recordSiblingsResolved()
	entry.Data = v
	entry.Found = true
	return nil
}

func (m contentMapper[T]) decode(c *pb.Content) (T, error) {
	var v T
	contentType := string(c.ContentType)
	if contentType == "" {
		contentType = m.client.defaultContentType
	}
	err := m.client.registry.unmarshalValue(contentType, c.Value, &v)
	return v, err
}
