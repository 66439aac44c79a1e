package pb

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

var errWireType = errors.New("unexpected wire type")

// Uint32 returns a pointer to v, for optional numeric fields.
func Uint32(v uint32) *uint32 { return &v }

// Bool returns a pointer to v, for optional boolean fields.
func Bool(v bool) *bool { return &v }

// GetUint32 returns the value of an optional field, or 0 when unset.
func GetUint32(v *uint32) uint32 {
	if v == nil {
		return 0
	}
	return *v
}

// GetBool returns the value of an optional field, or false when unset.
func GetBool(v *bool) bool {
	return v != nil && *v
}

// fieldVisitor handles one field whose tag has already been consumed.
// It returns the number of bytes consumed from b, or 0 if the field is
// not known (it will be skipped).
type fieldVisitor func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

// walkFields iterates over the fields of an encoded message body.
func walkFields(b []byte, visit fieldVisitor) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		m, err := visit(num, typ, b)
		if err != nil {
			return fmt.Errorf("field %d: %w", num, err)
		}
		if m == 0 {
			m = protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return fmt.Errorf("field %d: %w", num, protowire.ParseError(m))
			}
		}
		b = b[m:]
	}
	return nil
}

func readBytes(typ protowire.Type, b []byte, dst *[]byte) (int, error) {
	if typ != protowire.BytesType {
		return 0, errWireType
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*dst = v
	return n, nil
}

func readRepeatedBytes(typ protowire.Type, b []byte, dst *[][]byte) (int, error) {
	var v []byte
	n, err := readBytes(typ, b, &v)
	if err != nil {
		return 0, err
	}
	*dst = append(*dst, v)
	return n, nil
}

func readVarint(typ protowire.Type, b []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, errWireType
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func readUint32(typ protowire.Type, b []byte, dst **uint32) (int, error) {
	v, n, err := readVarint(typ, b)
	if err != nil {
		return 0, err
	}
	*dst = Uint32(uint32(v))
	return n, nil
}

func readBool(typ protowire.Type, b []byte, dst **bool) (int, error) {
	v, n, err := readVarint(typ, b)
	if err != nil {
		return 0, err
	}
	*dst = Bool(protowire.DecodeBool(v))
	return n, nil
}

// readEmbedded decodes a length-delimited sub-message into m.
func readEmbedded(typ protowire.Type, b []byte, m bodyCodec) (int, error) {
	var v []byte
	n, err := readBytes(typ, b, &v)
	if err != nil {
		return 0, err
	}
	if err := m.decodeBody(v); err != nil {
		return 0, err
	}
	return n, nil
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// appendOptBytes skips nil values; an empty non-nil slice is still written.
func appendOptBytes(b []byte, num protowire.Number, v []byte) []byte {
	if v == nil {
		return b
	}
	return appendBytes(b, num, v)
}

func appendOptUint32(b []byte, num protowire.Number, v *uint32) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(*v))
}

func appendOptBool(b []byte, num protowire.Number, v *bool) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(*v))
}

func appendEmbedded(b []byte, num protowire.Number, m bodyCodec) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m.appendBody(nil))
}
