package pb

import "google.golang.org/protobuf/encoding/protowire"

// bodyCodec is implemented by everything that has a protobuf body,
// top-level messages and embedded ones (Content, Link, Pair).
type bodyCodec interface {
	appendBody(b []byte) []byte
	decodeBody(b []byte) error
}

// Message is a protocol message that can travel in a frame.
// Optional scalar fields are pointers; nil means "not sent".
type Message interface {
	Code() MessageCode
	bodyCodec
}

// newMessage returns an empty message for code, ready to decode into.
func newMessage(code MessageCode) (Message, bool) {
	switch code {
	case CodeErrorResp:
		return &ErrorResp{}, true
	case CodePingReq:
		return &PingReq{}, true
	case CodePingResp:
		return &PingResp{}, true
	case CodeGetClientIdReq:
		return &GetClientIdReq{}, true
	case CodeGetClientIdResp:
		return &GetClientIdResp{}, true
	case CodeSetClientIdReq:
		return &SetClientIdReq{}, true
	case CodeSetClientIdResp:
		return &SetClientIdResp{}, true
	case CodeGetServerInfoReq:
		return &GetServerInfoReq{}, true
	case CodeGetServerInfoResp:
		return &GetServerInfoResp{}, true
	case CodeGetReq:
		return &GetReq{}, true
	case CodeGetResp:
		return &GetResp{}, true
	case CodePutReq:
		return &PutReq{}, true
	case CodePutResp:
		return &PutResp{}, true
	case CodeDelReq:
		return &DelReq{}, true
	case CodeDelResp:
		return &DelResp{}, true
	case CodeListBucketsReq:
		return &ListBucketsReq{}, true
	case CodeListBucketsResp:
		return &ListBucketsResp{}, true
	case CodeListKeysReq:
		return &ListKeysReq{}, true
	case CodeListKeysResp:
		return &ListKeysResp{}, true
	}
	if code.Valid() {
		return &RawMessage{MsgCode: code}, true
	}
	return nil, false
}

// --------------------------------------------------------------------------
// Messages without a body
// --------------------------------------------------------------------------

type emptyBody struct{}

func (emptyBody) appendBody(b []byte) []byte { return b }

func (emptyBody) decodeBody(b []byte) error {
	return walkFields(b, func(protowire.Number, protowire.Type, []byte) (int, error) { return 0, nil })
}

type PingReq struct{ emptyBody }
type PingResp struct{ emptyBody }
type GetClientIdReq struct{ emptyBody }
type SetClientIdResp struct{ emptyBody }
type GetServerInfoReq struct{ emptyBody }
type DelResp struct{ emptyBody }

func (*PingReq) Code() MessageCode          { return CodePingReq }
func (*PingResp) Code() MessageCode         { return CodePingResp }
func (*GetClientIdReq) Code() MessageCode   { return CodeGetClientIdReq }
func (*SetClientIdResp) Code() MessageCode  { return CodeSetClientIdResp }
func (*GetServerInfoReq) Code() MessageCode { return CodeGetServerInfoReq }
func (*DelResp) Code() MessageCode          { return CodeDelResp }

// --------------------------------------------------------------------------
// ErrorResp
// --------------------------------------------------------------------------

// ErrorResp is sent by the store instead of the expected response.
type ErrorResp struct {
	Errmsg  []byte
	Errcode uint32
}

func (*ErrorResp) Code() MessageCode { return CodeErrorResp }

func (m *ErrorResp) appendBody(b []byte) []byte {
	b = appendBytes(b, 1, m.Errmsg)
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(m.Errcode))
}

func (m *ErrorResp) decodeBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return readBytes(typ, b, &m.Errmsg)
		case 2:
			v, n, err := readVarint(typ, b)
			m.Errcode = uint32(v)
			return n, err
		}
		return 0, nil
	})
}

// Err converts the frame into a *ServerError.
func (m *ErrorResp) Err() *ServerError {
	return &ServerError{Message: string(m.Errmsg), Code: m.Errcode}
}

// --------------------------------------------------------------------------
// Client id and server info
// --------------------------------------------------------------------------

type GetClientIdResp struct {
	ClientId []byte
}

func (*GetClientIdResp) Code() MessageCode { return CodeGetClientIdResp }

func (m *GetClientIdResp) appendBody(b []byte) []byte {
	return appendBytes(b, 1, m.ClientId)
}

func (m *GetClientIdResp) decodeBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return readBytes(typ, b, &m.ClientId)
		}
		return 0, nil
	})
}

type SetClientIdReq struct {
	ClientId []byte
}

func (*SetClientIdReq) Code() MessageCode { return CodeSetClientIdReq }

func (m *SetClientIdReq) appendBody(b []byte) []byte {
	return appendBytes(b, 1, m.ClientId)
}

func (m *SetClientIdReq) decodeBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return readBytes(typ, b, &m.ClientId)
		}
		return 0, nil
	})
}

type GetServerInfoResp struct {
	Node          []byte
	ServerVersion []byte
}

func (*GetServerInfoResp) Code() MessageCode { return CodeGetServerInfoResp }

func (m *GetServerInfoResp) appendBody(b []byte) []byte {
	b = appendOptBytes(b, 1, m.Node)
	return appendOptBytes(b, 2, m.ServerVersion)
}

func (m *GetServerInfoResp) decodeBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return readBytes(typ, b, &m.Node)
		case 2:
			return readBytes(typ, b, &m.ServerVersion)
		}
		return 0, nil
	})
}

// --------------------------------------------------------------------------
// Get
// --------------------------------------------------------------------------

type GetReq struct {
	Bucket        []byte
	Key           []byte
	R             *uint32
	PR            *uint32
	BasicQuorum   *bool
	NotfoundOk    *bool
	IfModified    []byte
	Head          *bool
	Deletedvclock *bool
	Timeout       *uint32
	NVal          *uint32
	Type          []byte
}

func (*GetReq) Code() MessageCode { return CodeGetReq }

func (m *GetReq) appendBody(b []byte) []byte {
	b = appendBytes(b, 1, m.Bucket)
	b = appendBytes(b, 2, m.Key)
	b = appendOptUint32(b, 3, m.R)
	b = appendOptUint32(b, 4, m.PR)
	b = appendOptBool(b, 5, m.BasicQuorum)
	b = appendOptBool(b, 6, m.NotfoundOk)
	b = appendOptBytes(b, 7, m.IfModified)
	b = appendOptBool(b, 8, m.Head)
	b = appendOptBool(b, 9, m.Deletedvclock)
	b = appendOptUint32(b, 10, m.Timeout)
	b = appendOptUint32(b, 12, m.NVal)
	return appendOptBytes(b, 13, m.Type)
}

func (m *GetReq) decodeBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return readBytes(typ, b, &m.Bucket)
		case 2:
			return readBytes(typ, b, &m.Key)
		case 3:
			return readUint32(typ, b, &m.R)
		case 4:
			return readUint32(typ, b, &m.PR)
		case 5:
			return readBool(typ, b, &m.BasicQuorum)
		case 6:
			return readBool(typ, b, &m.NotfoundOk)
		case 7:
			return readBytes(typ, b, &m.IfModified)
		case 8:
			return readBool(typ, b, &m.Head)
		case 9:
			return readBool(typ, b, &m.Deletedvclock)
		case 10:
			return readUint32(typ, b, &m.Timeout)
		case 12:
			return readUint32(typ, b, &m.NVal)
		case 13:
			return readBytes(typ, b, &m.Type)
		}
		return 0, nil
	})
}

type GetResp struct {
	Content   []*Content
	Vclock    []byte
	Unchanged *bool
}

func (*GetResp) Code() MessageCode { return CodeGetResp }

func (m *GetResp) appendBody(b []byte) []byte {
	for _, c := range m.Content {
		b = appendEmbedded(b, 1, c)
	}
	b = appendOptBytes(b, 2, m.Vclock)
	return appendOptBool(b, 3, m.Unchanged)
}

func (m *GetResp) decodeBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			c := &Content{}
			n, err := readEmbedded(typ, b, c)
			if err == nil {
				m.Content = append(m.Content, c)
			}
			return n, err
		case 2:
			return readBytes(typ, b, &m.Vclock)
		case 3:
			return readBool(typ, b, &m.Unchanged)
		}
		return 0, nil
	})
}

// --------------------------------------------------------------------------
// Put
// --------------------------------------------------------------------------

type PutReq struct {
	Bucket        []byte
	Key           []byte
	Vclock        []byte
	Content       *Content
	W             *uint32
	DW            *uint32
	ReturnBody    *bool
	PW            *uint32
	IfNotModified *bool
	IfNoneMatch   *bool
	ReturnHead    *bool
	Timeout       *uint32
	NVal          *uint32
	Type          []byte
}

func (*PutReq) Code() MessageCode { return CodePutReq }

func (m *PutReq) appendBody(b []byte) []byte {
	b = appendBytes(b, 1, m.Bucket)
	b = appendOptBytes(b, 2, m.Key)
	b = appendOptBytes(b, 3, m.Vclock)
	if m.Content != nil {
		b = appendEmbedded(b, 4, m.Content)
	}
	b = appendOptUint32(b, 5, m.W)
	b = appendOptUint32(b, 6, m.DW)
	b = appendOptBool(b, 7, m.ReturnBody)
	b = appendOptUint32(b, 8, m.PW)
	b = appendOptBool(b, 9, m.IfNotModified)
	b = appendOptBool(b, 10, m.IfNoneMatch)
	b = appendOptBool(b, 11, m.ReturnHead)
	b = appendOptUint32(b, 12, m.Timeout)
	b = appendOptUint32(b, 15, m.NVal)
	return appendOptBytes(b, 16, m.Type)
}

func (m *PutReq) decodeBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return readBytes(typ, b, &m.Bucket)
		case 2:
			return readBytes(typ, b, &m.Key)
		case 3:
			return readBytes(typ, b, &m.Vclock)
		case 4:
			m.Content = &Content{}
			return readEmbedded(typ, b, m.Content)
		case 5:
			return readUint32(typ, b, &m.W)
		case 6:
			return readUint32(typ, b, &m.DW)
		case 7:
			return readBool(typ, b, &m.ReturnBody)
		case 8:
			return readUint32(typ, b, &m.PW)
		case 9:
			return readBool(typ, b, &m.IfNotModified)
		case 10:
			return readBool(typ, b, &m.IfNoneMatch)
		case 11:
			return readBool(typ, b, &m.ReturnHead)
		case 12:
			return readUint32(typ, b, &m.Timeout)
		case 15:
			return readUint32(typ, b, &m.NVal)
		case 16:
			return readBytes(typ, b, &m.Type)
		}
		return 0, nil
	})
}

type PutResp struct {
	Content []*Content
	Vclock  []byte
	Key     []byte // only set when the server generated the key
}

func (*PutResp) Code() MessageCode { return CodePutResp }

func (m *PutResp) appendBody(b []byte) []byte {
	for _, c := range m.Content {
		b = appendEmbedded(b, 1, c)
	}
	b = appendOptBytes(b, 2, m.Vclock)
	return appendOptBytes(b, 3, m.Key)
}

func (m *PutResp) decodeBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			c := &Content{}
			n, err := readEmbedded(typ, b, c)
			if err == nil {
				m.Content = append(m.Content, c)
			}
			return n, err
		case 2:
			return readBytes(typ, b, &m.Vclock)
		case 3:
			return readBytes(typ, b, &m.Key)
		}
		return 0, nil
	})
}

// --------------------------------------------------------------------------
// Delete
// --------------------------------------------------------------------------

type DelReq struct {
	Bucket  []byte
	Key     []byte
	RW      *uint32
	Vclock  []byte
	R       *uint32
	W       *uint32
	PR      *uint32
	PW      *uint32
	DW      *uint32
	Timeout *uint32
	NVal    *uint32
	Type    []byte
}

func (*DelReq) Code() MessageCode { return CodeDelReq }

func (m *DelReq) appendBody(b []byte) []byte {
	b = appendBytes(b, 1, m.Bucket)
	b = appendBytes(b, 2, m.Key)
	b = appendOptUint32(b, 3, m.RW)
	b = appendOptBytes(b, 4, m.Vclock)
	b = appendOptUint32(b, 5, m.R)
	b = appendOptUint32(b, 6, m.W)
	b = appendOptUint32(b, 7, m.PR)
	b = appendOptUint32(b, 8, m.PW)
	b = appendOptUint32(b, 9, m.DW)
	b = appendOptUint32(b, 10, m.Timeout)
	b = appendOptUint32(b, 12, m.NVal)
	return appendOptBytes(b, 13, m.Type)
}

func (m *DelReq) decodeBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return readBytes(typ, b, &m.Bucket)
		case 2:
			return readBytes(typ, b, &m.Key)
		case 3:
			return readUint32(typ, b, &m.RW)
		case 4:
			return readBytes(typ, b, &m.Vclock)
		case 5:
			return readUint32(typ, b, &m.R)
		case 6:
			return readUint32(typ, b, &m.W)
		case 7:
			return readUint32(typ, b, &m.PR)
		case 8:
			return readUint32(typ, b, &m.PW)
		case 9:
			return readUint32(typ, b, &m.DW)
		case 10:
			return readUint32(typ, b, &m.Timeout)
		case 12:
			return readUint32(typ, b, &m.NVal)
		case 13:
			return readBytes(typ, b, &m.Type)
		}
		return 0, nil
	})
}

// --------------------------------------------------------------------------
// Listing
// --------------------------------------------------------------------------

type ListBucketsReq struct {
	Timeout *uint32
	Stream  *bool
	Type    []byte
}

func (*ListBucketsReq) Code() MessageCode { return CodeListBucketsReq }

func (m *ListBucketsReq) appendBody(b []byte) []byte {
	b = appendOptUint32(b, 1, m.Timeout)
	b = appendOptBool(b, 2, m.Stream)
	return appendOptBytes(b, 3, m.Type)
}

func (m *ListBucketsReq) decodeBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return readUint32(typ, b, &m.Timeout)
		case 2:
			return readBool(typ, b, &m.Stream)
		case 3:
			return readBytes(typ, b, &m.Type)
		}
		return 0, nil
	})
}

type ListBucketsResp struct {
	Buckets [][]byte
	Done    *bool
}

func (*ListBucketsResp) Code() MessageCode { return CodeListBucketsResp }

func (m *ListBucketsResp) appendBody(b []byte) []byte {
	for _, bucket := range m.Buckets {
		b = appendBytes(b, 1, bucket)
	}
	return appendOptBool(b, 2, m.Done)
}

func (m *ListBucketsResp) decodeBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return readRepeatedBytes(typ, b, &m.Buckets)
		case 2:
			return readBool(typ, b, &m.Done)
		}
		return 0, nil
	})
}

type ListKeysReq struct {
	Bucket  []byte
	Timeout *uint32
	Type    []byte
}

func (*ListKeysReq) Code() MessageCode { return CodeListKeysReq }

func (m *ListKeysReq) appendBody(b []byte) []byte {
	b = appendBytes(b, 1, m.Bucket)
	b = appendOptUint32(b, 2, m.Timeout)
	return appendOptBytes(b, 3, m.Type)
}

func (m *ListKeysReq) decodeBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return readBytes(typ, b, &m.Bucket)
		case 2:
			return readUint32(typ, b, &m.Timeout)
		case 3:
			return readBytes(typ, b, &m.Type)
		}
		return 0, nil
	})
}

// ListKeysResp is streamed: the store sends chunks of keys and marks the
// last one with Done.
type ListKeysResp struct {
	Keys [][]byte
	Done *bool
}

func (*ListKeysResp) Code() MessageCode { return CodeListKeysResp }

func (m *ListKeysResp) appendBody(b []byte) []byte {
	for _, key := range m.Keys {
		b = appendBytes(b, 1, key)
	}
	return appendOptBool(b, 2, m.Done)
}

func (m *ListKeysResp) decodeBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return readRepeatedBytes(typ, b, &m.Keys)
		case 2:
			return readBool(typ, b, &m.Done)
		}
		return 0, nil
	})
}

// --------------------------------------------------------------------------
// Opaque messages
// --------------------------------------------------------------------------

// RawMessage carries the body of a message this package does not model
// (bucket properties, map-reduce, secondary indexes, search).
// The body is kept as-is and re-encoded byte for byte.
type RawMessage struct {
	MsgCode MessageCode
	Body    []byte
}

func (m *RawMessage) Code() MessageCode { return m.MsgCode }

func (m *RawMessage) appendBody(b []byte) []byte {
	return append(b, m.Body...)
}

func (m *RawMessage) decodeBody(b []byte) error {
	m.Body = b
	return nil
}
