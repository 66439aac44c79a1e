package pb

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func roundTrip(t *testing.T, msg Message) Message {
	t.Helper()
	frame, err := Encode(msg)
	require.NoError(t, err)

	got, err := ReadMessage(bufio.NewReader(bytes.NewReader(frame)))
	require.NoError(t, err)
	return got
}

func TestEncode_FrameLayout(t *testing.T) {
	frame, err := Encode(&PingReq{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 1, 1}, frame)

	frame, err = Encode(&GetReq{Bucket: []byte("b"), Key: []byte("k")})
	require.NoError(t, err)
	require.Greater(t, len(frame), 5)
	assert.Equal(t, uint32(len(frame)-4), binary.BigEndian.Uint32(frame))
	assert.Equal(t, byte(CodeGetReq), frame[4])
	// bucket=1, key=2
	assert.Equal(t, []byte{0x0a, 1, 'b', 0x12, 1, 'k'}, frame[5:])
}

func TestRoundTrip_EmptyMessages(t *testing.T) {
	for _, msg := range []Message{&PingReq{}, &PingResp{}, &GetClientIdReq{}, &SetClientIdResp{}, &GetServerInfoReq{}, &DelResp{}} {
		t.Run(msg.Code().String(), func(t *testing.T) {
			got := roundTrip(t, msg)
			assert.Equal(t, msg.Code(), got.Code())
			assert.IsType(t, msg, got)
		})
	}
}

func TestRoundTrip_GetResp(t *testing.T) {
	msg := &GetResp{
		Content: []*Content{
			{
				Value:       []byte(`{"a":1}`),
				ContentType: []byte("application/json"),
				Vtag:        []byte("v1"),
				LastMod:     Uint32(1700000000),
				Usermeta:    []*Pair{{Key: []byte("owner"), Value: []byte("bob")}},
				Links:       []*Link{{Bucket: []byte("b"), Key: []byte("k2"), Tag: []byte("next")}},
			},
			{Value: []byte("second"), Deleted: Bool(true)},
		},
		Vclock: []byte{0x6b, 0xce, 0x61},
	}

	got := roundTrip(t, msg)
	resp, ok := got.(*GetResp)
	require.True(t, ok)
	require.Len(t, resp.Content, 2)
	assert.Equal(t, msg.Vclock, resp.Vclock)
	assert.Equal(t, []byte(`{"a":1}`), resp.Content[0].Value)
	assert.Equal(t, "application/json", string(resp.Content[0].ContentType))
	assert.Equal(t, uint32(1700000000), GetUint32(resp.Content[0].LastMod))
	require.Len(t, resp.Content[0].Usermeta, 1)
	assert.Equal(t, "bob", string(resp.Content[0].Usermeta[0].Value))
	require.Len(t, resp.Content[0].Links, 1)
	assert.Equal(t, "next", string(resp.Content[0].Links[0].Tag))
	assert.True(t, GetBool(resp.Content[1].Deleted))
	assert.Nil(t, resp.Unchanged)
}

func TestRoundTrip_PutReq(t *testing.T) {
	msg := &PutReq{
		Bucket:      []byte("b"),
		Key:         []byte("k"),
		Vclock:      []byte("clock"),
		Content:     &Content{Value: []byte("v"), ContentType: []byte("text/plain")},
		W:           Uint32(2),
		DW:          Uint32(1),
		PW:          Uint32(0),
		IfNoneMatch: Bool(true),
		ReturnHead:  Bool(true),
		Timeout:     Uint32(60000),
	}

	got := roundTrip(t, msg)
	req, ok := got.(*PutReq)
	require.True(t, ok)
	assert.Equal(t, msg, req)
}

func TestRoundTrip_Messages(t *testing.T) {
	tests := []Message{
		&GetReq{
			Bucket:        []byte("users"),
			Key:           []byte("alice"),
			R:             Uint32(2),
			PR:            Uint32(0),
			BasicQuorum:   Bool(false),
			NotfoundOk:    Bool(true),
			IfModified:    []byte("clock"),
			Head:          Bool(true),
			Deletedvclock: Bool(true),
			Timeout:       Uint32(1500),
			NVal:          Uint32(3),
			Type:          []byte("default"),
		},
		&PutResp{
			Content: []*Content{{
				Value:       []byte(`{"name":"alice"}`),
				ContentType: []byte("application/json"),
				Usermeta:    []*Pair{{Key: []byte("team"), Value: []byte("core")}},
				Indexes:     []*Pair{{Key: []byte("email_bin"), Value: []byte("alice@example.com")}},
				Links:       []*Link{{Bucket: []byte("users"), Key: []byte("bob"), Tag: []byte("friend")}},
				LastMod:     Uint32(1700000000),
			}},
			Vclock: []byte{0x6b, 0xce},
			Key:    []byte("generated"),
		},
		&GetServerInfoResp{Node: []byte("riak@127.0.0.1"), ServerVersion: []byte("2.9.10")},
		&GetClientIdResp{ClientId: []byte{0, 0, 0, 42}},
		&SetClientIdReq{ClientId: []byte("client-1")},
		&ListBucketsReq{Timeout: Uint32(500), Stream: Bool(true), Type: []byte("maps")},
		&ListBucketsResp{Buckets: [][]byte{[]byte("users"), []byte("orders")}, Done: Bool(true)},
		&ListKeysReq{Bucket: []byte("users"), Timeout: Uint32(60000), Type: []byte("default")},
		&PutReq{
			Bucket:        []byte("users"),
			Key:           []byte("alice"),
			Content:       &Content{Value: []byte("v"), Charset: []byte("utf-8"), ContentEncoding: []byte("gzip")},
			ReturnBody:    Bool(true),
			IfNotModified: Bool(true),
			NVal:          Uint32(3),
			Type:          []byte("default"),
		},
		&DelReq{
			Bucket:  []byte("users"),
			Key:     []byte("alice"),
			R:       Uint32(1),
			W:       Uint32(2),
			PR:      Uint32(1),
			PW:      Uint32(1),
			DW:      Uint32(1),
			Timeout: Uint32(100),
			NVal:    Uint32(3),
		},
		&ListKeysResp{Keys: [][]byte{[]byte("a")}, Done: Bool(false)},
		&ErrorResp{Errmsg: []byte("overload"), Errcode: 0},
	}

	for _, msg := range tests {
		t.Run(msg.Code().String(), func(t *testing.T) {
			assert.Equal(t, msg, roundTrip(t, msg))
		})
	}
}

func TestRoundTrip_DelReqOptionalFields(t *testing.T) {
	got := roundTrip(t, &DelReq{Bucket: []byte("b"), Key: []byte("k")})
	req := got.(*DelReq)
	assert.Nil(t, req.RW)
	assert.Nil(t, req.Vclock)
	assert.Nil(t, req.Timeout)

	got = roundTrip(t, &DelReq{Bucket: []byte("b"), Key: []byte("k"), RW: Uint32(0), Vclock: []byte("vc")})
	req = got.(*DelReq)
	require.NotNil(t, req.RW)
	assert.Equal(t, uint32(0), *req.RW)
	assert.Equal(t, []byte("vc"), req.Vclock)
}

func TestRoundTrip_ListKeysResp(t *testing.T) {
	got := roundTrip(t, &ListKeysResp{Keys: [][]byte{[]byte("a"), []byte("b")}})
	resp := got.(*ListKeysResp)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, resp.Keys)
	assert.False(t, GetBool(resp.Done))

	got = roundTrip(t, &ListKeysResp{Done: Bool(true)})
	resp = got.(*ListKeysResp)
	assert.Empty(t, resp.Keys)
	assert.True(t, GetBool(resp.Done))
}

func TestRoundTrip_ErrorResp(t *testing.T) {
	got := roundTrip(t, &ErrorResp{Errmsg: []byte("modified"), Errcode: 1})
	resp := got.(*ErrorResp)
	err := resp.Err()
	assert.Equal(t, "modified", err.Message)
	assert.Equal(t, uint32(1), err.Code)
	assert.False(t, ShouldCloseConnection(err))
}

func TestRoundTrip_RawMessage(t *testing.T) {
	for code := CodeGetBucketReq; code <= CodeSearchQueryResp; code++ {
		got := roundTrip(t, &RawMessage{MsgCode: code, Body: []byte{0x0a, 0x01, 'x'}})
		raw, ok := got.(*RawMessage)
		require.True(t, ok, code.String())
		assert.Equal(t, code, raw.Code())
		assert.Equal(t, []byte{0x0a, 0x01, 'x'}, raw.Body)
	}
}

func TestDecode_UnknownFieldsSkipped(t *testing.T) {
	body := protowire.AppendTag(nil, 99, protowire.VarintType)
	body = protowire.AppendVarint(body, 7)
	body = protowire.AppendTag(body, 1, protowire.BytesType)
	body = protowire.AppendBytes(body, []byte("node@host"))

	msg, err := Decode(append([]byte{byte(CodeGetServerInfoResp)}, body...))
	require.NoError(t, err)
	assert.Equal(t, "node@host", string(msg.(*GetServerInfoResp).Node))
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty", nil},
		{"unknown code", []byte{29}},
		{"code 255", []byte{255, 0}},
		{"truncated bytes field", []byte{byte(CodeGetResp), 0x12, 0x05, 'a'}},
		{"wrong wire type", []byte{byte(CodeListKeysResp), 0x08, 0x01}},
		{"truncated embedded", []byte{byte(CodeListKeysResp), 0x10, 0x00, 0x0a, 0x01}},
		{"bad tag", []byte{byte(CodeGetReq), 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.payload)
			require.Error(t, err)
			var decErr *DecodeError
			require.ErrorAs(t, err, &decErr)
			assert.True(t, ShouldCloseConnection(err))
		})
	}
}

func TestReadFrame_Batched(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, &PingResp{}))
	require.NoError(t, WriteFrame(&buf, &ListKeysResp{Keys: [][]byte{[]byte("k1")}}))
	require.NoError(t, WriteFrame(&buf, &ListKeysResp{Done: Bool(true)}))

	r := bufio.NewReader(&buf)
	var codes []MessageCode
	for {
		msg, err := ReadMessage(r)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		codes = append(codes, msg.Code())
	}
	assert.Equal(t, []MessageCode{CodePingResp, CodeListKeysResp, CodeListKeysResp}, codes)
}

func TestReadFrame_Truncated(t *testing.T) {
	frame, err := Encode(&GetReq{Bucket: []byte("bucket"), Key: []byte("key")})
	require.NoError(t, err)

	_, err = ReadFrame(bufio.NewReader(bytes.NewReader(frame[:len(frame)-2])))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = ReadFrame(bufio.NewReader(bytes.NewReader(frame[:2])))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadFrame_BadLength(t *testing.T) {
	_, err := ReadFrame(bufio.NewReader(bytes.NewReader([]byte{0, 0, 0, 0})))
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)

	_, err = ReadFrame(bufio.NewReader(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff, 1})))
	require.ErrorAs(t, err, &decErr)
}

func TestEncode_InvalidCode(t *testing.T) {
	_, err := Encode(&RawMessage{MsgCode: 40})
	require.Error(t, err)

	_, err = Encode(nil)
	require.Error(t, err)
}

func TestMessageCode_String(t *testing.T) {
	assert.Equal(t, "ErrorResp", CodeErrorResp.String())
	assert.Equal(t, "ListKeysResp", CodeListKeysResp.String())
	assert.Equal(t, "SearchQueryResp", CodeSearchQueryResp.String())
	assert.Equal(t, "MessageCode(42)", MessageCode(42).String())
	assert.False(t, MessageCode(29).Valid())
}
