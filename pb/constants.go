package pb

import "strconv"

// MessageCode is the single byte that precedes every message body on the wire.
type MessageCode uint8

// Message codes (0-28). The numbering is fixed by the store's protocol.
const (
	CodeErrorResp         MessageCode = 0
	CodePingReq           MessageCode = 1
	CodePingResp          MessageCode = 2
	CodeGetClientIdReq    MessageCode = 3
	CodeGetClientIdResp   MessageCode = 4
	CodeSetClientIdReq    MessageCode = 5
	CodeSetClientIdResp   MessageCode = 6
	CodeGetServerInfoReq  MessageCode = 7
	CodeGetServerInfoResp MessageCode = 8
	CodeGetReq            MessageCode = 9
	CodeGetResp           MessageCode = 10
	CodePutReq            MessageCode = 11
	CodePutResp           MessageCode = 12
	CodeDelReq            MessageCode = 13
	CodeDelResp           MessageCode = 14
	CodeListBucketsReq    MessageCode = 15
	CodeListBucketsResp   MessageCode = 16
	CodeListKeysReq       MessageCode = 17
	CodeListKeysResp      MessageCode = 18
	CodeGetBucketReq      MessageCode = 19
	CodeGetBucketResp     MessageCode = 20
	CodeSetBucketReq      MessageCode = 21
	CodeSetBucketResp     MessageCode = 22
	CodeMapRedReq         MessageCode = 23
	CodeMapRedResp        MessageCode = 24
	CodeIndexReq          MessageCode = 25
	CodeIndexResp         MessageCode = 26
	CodeSearchQueryReq    MessageCode = 27
	CodeSearchQueryResp   MessageCode = 28

	maxMessageCode = CodeSearchQueryResp
)

var codeNames = [...]string{
	"ErrorResp",
	"PingReq",
	"PingResp",
	"GetClientIdReq",
	"GetClientIdResp",
	"SetClientIdReq",
	"SetClientIdResp",
	"GetServerInfoReq",
	"GetServerInfoResp",
	"GetReq",
	"GetResp",
	"PutReq",
	"PutResp",
	"DelReq",
	"DelResp",
	"ListBucketsReq",
	"ListBucketsResp",
	"ListKeysReq",
	"ListKeysResp",
	"GetBucketReq",
	"GetBucketResp",
	"SetBucketReq",
	"SetBucketResp",
	"MapRedReq",
	"MapRedResp",
	"IndexReq",
	"IndexResp",
	"SearchQueryReq",
	"SearchQueryResp",
}

// Valid reports whether c is one of the enumerated message codes.
func (c MessageCode) Valid() bool {
	return c <= maxMessageCode
}

func (c MessageCode) String() string {
	if !c.Valid() {
		return "MessageCode(" + strconv.Itoa(int(c)) + ")"
	}
	return codeNames[c]
}

// Frame layout constants
const (
	// FrameHeaderSize is the length prefix size in bytes (uint32, big endian).
	// The length covers the code byte and the body.
	FrameHeaderSize = 4

	// MaxFrameSize bounds the length prefix accepted by ReadFrame.
	MaxFrameSize = 64 << 20

	// DefaultPort is the store's protocol-buffers listener port.
	DefaultPort = 8087
)
