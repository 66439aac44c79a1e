package riak

import (
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// Converter turns values into stored bytes and back, for the content types
// it is registered for.
type Converter interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// ConverterRegistration binds a converter to a content-type pattern.
// Type and Subtype are literal tokens or "*". A literal Subtype also matches
// structured suffixes: "json" matches "application/vnd.api+json".
type ConverterRegistration struct {
	Type      string
	Subtype   string
	Converter Converter
}

func (r ConverterRegistration) matches(typ, subtype string) bool {
	if r.Type != "*" && r.Type != typ {
		return false
	}
	return r.Subtype == "*" || r.Subtype == subtype || strings.HasSuffix(subtype, "+"+r.Subtype)
}

// Registry resolves content types to converters. Registrations are tried
// in order and the first match wins. Resolutions are cached by content-type
// string; conversion results are not.
type Registry struct {
	mu            sync.RWMutex
	registrations []ConverterRegistration

	cache *xsync.MapOf[string, Converter]
	scans atomic.Int64
}

// NewRegistry returns a registry trying registrations in order.
func NewRegistry(registrations ...ConverterRegistration) *Registry {
	r := &Registry{cache: xsync.NewMapOf[string, Converter]()}
	for _, reg := range registrations {
		r.Register(reg.Type, reg.Subtype, reg.Converter)
	}
	return r
}

// Register appends a registration. Cached resolutions stay valid since a
// new registration never takes precedence over an older one.
func (r *Registry) Register(typ, subtype string, c Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registrations = append(r.registrations, ConverterRegistration{
		Type:      strings.ToLower(strings.TrimSpace(typ)),
		Subtype:   strings.ToLower(strings.TrimSpace(subtype)),
		Converter: c,
	})
}

// Resolve returns the converter for contentType, or an
// *UnsupportedContentTypeError. Parameters such as "; charset=utf-8" are
// ignored for matching.
func (r *Registry) Resolve(contentType string) (Converter, error) {
	if c, ok := r.cache.Load(contentType); ok {
		return c, nil
	}

	r.scans.Add(1)
	typ, subtype := splitMediaType(contentType)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, reg := range r.registrations {
		if reg.matches(typ, subtype) {
			r.cache.Store(contentType, reg.Converter)
			return reg.Converter, nil
		}
	}
	return nil, &UnsupportedContentTypeError{ContentType: contentType}
}

// Len returns the number of registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.registrations)
}

func splitMediaType(contentType string) (typ, subtype string) {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	typ, subtype, _ = strings.Cut(mediaType, "/")
	return typ, subtype
}

// JSONConverter is registered for application/json when no converter is configured.
type JSONConverter struct{}

func (JSONConverter) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONConverter) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// marshalValue produces the stored bytes for v. A []byte is stored as-is.
func (r *Registry) marshalValue(contentType string, v any) ([]byte, error) {
	if b, ok := v.([]byte); ok {
		return b, nil
	}
	c, err := r.Resolve(contentType)
	if err != nil {
		return nil, err
	}
	data, err := c.Marshal(v)
	if err != nil {
		return nil, &ConversionError{ContentType: contentType, Err: err}
	}
	return data, nil
}

// unmarshalValue decodes data into dst. A *[]byte receives the data as-is.
func (r *Registry) unmarshalValue(contentType string, data []byte, dst any) error {
	if b, ok := dst.(*[]byte); ok {
		*b = data
		return nil
	}
	c, err := r.Resolve(contentType)
	if err != nil {
		return err
	}
	if err := c.Unmarshal(data, dst); err != nil {
		return &ConversionError{ContentType: contentType, Err: err}
	}
	return nil
}
