package pb

import "google.golang.org/protobuf/encoding/protowire"

// Content is one stored value with its metadata. A GetResp carries one
// Content per sibling.
type Content struct {
	Value           []byte
	ContentType     []byte
	Charset         []byte
	ContentEncoding []byte
	Vtag            []byte
	Links           []*Link
	LastMod         *uint32
	LastModUsecs    *uint32
	Usermeta        []*Pair
	Indexes         []*Pair
	Deleted         *bool
}

func (m *Content) appendBody(b []byte) []byte {
	b = appendBytes(b, 1, m.Value)
	b = appendOptBytes(b, 2, m.ContentType)
	b = appendOptBytes(b, 3, m.Charset)
	b = appendOptBytes(b, 4, m.ContentEncoding)
	b = appendOptBytes(b, 5, m.Vtag)
	for _, l := range m.Links {
		b = appendEmbedded(b, 6, l)
	}
	b = appendOptUint32(b, 7, m.LastMod)
	b = appendOptUint32(b, 8, m.LastModUsecs)
	for _, p := range m.Usermeta {
		b = appendEmbedded(b, 9, p)
	}
	for _, p := range m.Indexes {
		b = appendEmbedded(b, 10, p)
	}
	return appendOptBool(b, 11, m.Deleted)
}

func (m *Content) decodeBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return readBytes(typ, b, &m.Value)
		case 2:
			return readBytes(typ, b, &m.ContentType)
		case 3:
			return readBytes(typ, b, &m.Charset)
		case 4:
			return readBytes(typ, b, &m.ContentEncoding)
		case 5:
			return readBytes(typ, b, &m.Vtag)
		case 6:
			l := &Link{}
			n, err := readEmbedded(typ, b, l)
			if err == nil {
				m.Links = append(m.Links, l)
			}
			return n, err
		case 7:
			return readUint32(typ, b, &m.LastMod)
		case 8:
			return readUint32(typ, b, &m.LastModUsecs)
		case 9, 10:
			p := &Pair{}
			n, err := readEmbedded(typ, b, p)
			if err != nil {
				return n, err
			}
			if num == 9 {
				m.Usermeta = append(m.Usermeta, p)
			} else {
				m.Indexes = append(m.Indexes, p)
			}
			return n, nil
		case 11:
			return readBool(typ, b, &m.Deleted)
		}
		return 0, nil
	})
}

// Link points at another object.
type Link struct {
	Bucket []byte
	Key    []byte
	Tag    []byte
}

func (m *Link) appendBody(b []byte) []byte {
	b = appendOptBytes(b, 1, m.Bucket)
	b = appendOptBytes(b, 2, m.Key)
	return appendOptBytes(b, 3, m.Tag)
}

func (m *Link) decodeBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return readBytes(typ, b, &m.Bucket)
		case 2:
			return readBytes(typ, b, &m.Key)
		case 3:
			return readBytes(typ, b, &m.Tag)
		}
		return 0, nil
	})
}

// Pair is a key/value pair, used for user metadata and index entries.
type Pair struct {
	Key   []byte
	Value []byte
}

func (m *Pair) appendBody(b []byte) []byte {
	b = appendBytes(b, 1, m.Key)
	return appendOptBytes(b, 2, m.Value)
}

func (m *Pair) decodeBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return readBytes(typ, b, &m.Key)
		case 2:
			return readBytes(typ, b, &m.Value)
		}
		return 0, nil
	})
}
