package riak

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// namedConverter is identified by name in resolution tests.
type namedConverter struct {
	name string
	err  error
}

func (c namedConverter) Marshal(v any) ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	return []byte(c.name), nil
}

func (c namedConverter) Unmarshal(data []byte, v any) error {
	if c.err != nil {
		return c.err
	}
	if s, ok := v.(*string); ok {
		*s = c.name + ":" + string(data)
	}
	return nil
}

func TestRegistry_Resolve(t *testing.T) {
	j := namedConverter{name: "J"}
	f := namedConverter{name: "F"}
	registry := NewRegistry(
		ConverterRegistration{Type: "application", Subtype: "json", Converter: j},
		ConverterRegistration{Type: "*", Subtype: "*", Converter: f},
	)

	tests := []struct {
		contentType string
		want        Converter
	}{
		{"application/json", j},
		{"application/vnd.api+json", j},
		{"Application/JSON", j},
		{"application/json; charset=utf-8", j},
		{"text/plain", f},
		{"application/jsonx", f},
		{"application/xml", f},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			got, err := registry.Resolve(tt.contentType)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_FirstMatchWins(t *testing.T) {
	first := namedConverter{name: "first"}
	second := namedConverter{name: "second"}
	registry := NewRegistry(
		ConverterRegistration{Type: "application", Subtype: "*", Converter: first},
		ConverterRegistration{Type: "application", Subtype: "json", Converter: second},
	)

	got, err := registry.Resolve("application/json")
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestRegistry_Unsupported(t *testing.T) {
	registry := NewRegistry(ConverterRegistration{Type: "application", Subtype: "json", Converter: JSONConverter{}})

	_, err := registry.Resolve("text/plain")
	var unsupported *UnsupportedContentTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "text/plain", unsupported.ContentType)

	_, err = NewRegistry().Resolve("application/json")
	require.ErrorAs(t, err, &unsupported)
}

func TestRegistry_CachesResolutions(t *testing.T) {
	registry := NewRegistry(ConverterRegistration{Type: "application", Subtype: "json", Converter: JSONConverter{}})

	for range 5 {
		_, err := registry.Resolve("application/json")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), registry.scans.Load())

	_, err := registry.Resolve("application/vnd.api+json")
	require.NoError(t, err)
	assert.Equal(t, int64(2), registry.scans.Load())

	// Failures are not cached.
	for range 2 {
		_, err := registry.Resolve("text/plain")
		require.Error(t, err)
	}
	assert.Equal(t, int64(4), registry.scans.Load())
}

func TestRegistry_RegisterAfterFailure(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.Resolve("text/plain")
	require.Error(t, err)

	registry.Register("Text", "Plain", namedConverter{name: "text"})
	assert.Equal(t, 1, registry.Len())

	got, err := registry.Resolve("text/plain")
	require.NoError(t, err)
	assert.Equal(t, namedConverter{name: "text"}, got)
}

func TestRegistry_RawBytes(t *testing.T) {
	registry := NewRegistry()

	data, err := registry.marshalValue("image/png", []byte{0x89, 'P'})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P'}, data)

	var out []byte
	require.NoError(t, registry.unmarshalValue("image/png", []byte("raw"), &out))
	assert.Equal(t, "raw", string(out))
}

func TestRegistry_ConversionError(t *testing.T) {
	boom := errors.New("boom")
	registry := NewRegistry(ConverterRegistration{Type: "*", Subtype: "*", Converter: namedConverter{err: boom}})

	_, err := registry.marshalValue("text/plain", "x")
	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, "text/plain", convErr.ContentType)
	assert.ErrorIs(t, err, boom)

	var s string
	err = registry.unmarshalValue("text/plain", []byte("x"), &s)
	assert.ErrorIs(t, err, boom)
}

func TestJSONConverter(t *testing.T) {
	data, err := JSONConverter{}.Marshal(user{Name: "alice", Email: "a@example.com"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"alice","email":"a@example.com"}`, string(data))

	var u user
	require.NoError(t, JSONConverter{}.Unmarshal(data, &u))
	assert.Equal(t, "alice", u.Name)
}
