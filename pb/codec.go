package pb

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Encode serializes msg into a complete frame:
//
//	<length:uint32 BE><code:uint8><body>
//
// The length covers the code byte and the body.
func Encode(msg Message) ([]byte, error) {
	return AppendFrame(nil, msg)
}

// AppendFrame appends the frame for msg to b.
func AppendFrame(b []byte, msg Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("riak: encode: nil message")
	}
	code := msg.Code()
	if !code.Valid() {
		return nil, fmt.Errorf("riak: encode: invalid message code %d", code)
	}

	start := len(b)
	b = append(b, 0, 0, 0, 0, byte(code))
	b = msg.appendBody(b)

	size := len(b) - start - FrameHeaderSize
	if size > MaxFrameSize {
		return nil, fmt.Errorf("riak: encode %s: frame of %d bytes exceeds limit", code, size)
	}
	binary.BigEndian.PutUint32(b[start:], uint32(size))
	return b, nil
}

// Decode parses a frame payload (code byte followed by the body, without the
// length prefix) into a typed message.
//
// Codes 19-28 decode into *RawMessage. An unknown code or a malformed body
// returns a *DecodeError.
func Decode(payload []byte) (Message, error) {
	if len(payload) == 0 {
		return nil, &DecodeError{Message: "empty frame"}
	}

	code := MessageCode(payload[0])
	msg, ok := newMessage(code)
	if !ok {
		return nil, &DecodeError{Code: code, Message: "unknown message code"}
	}

	body := payload[1:]
	if err := msg.decodeBody(body); err != nil {
		return nil, &DecodeError{Code: code, Message: "malformed body", Err: err}
	}
	return msg, nil
}

// WriteFrame encodes msg and writes it to w.
func WriteFrame(w io.Writer, msg Message) error {
	frame, err := Encode(msg)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// ReadFrame reads one length-prefixed frame from r and returns its payload
// (code byte and body). The returned slice is owned by the caller.
//
// Returns io.EOF only when the stream ends cleanly between frames; a stream
// truncated inside a frame returns io.ErrUnexpectedEOF.
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	size := binary.BigEndian.Uint32(header[:])
	if size == 0 {
		return nil, &DecodeError{Message: "zero length frame"}
	}
	if size > MaxFrameSize {
		return nil, &DecodeError{Message: fmt.Sprintf("frame length %d exceeds limit", size)}
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}

// ReadMessage reads and decodes the next frame from r.
func ReadMessage(r *bufio.Reader) (Message, error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return Decode(payload)
}
