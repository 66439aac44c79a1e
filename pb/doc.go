// Package pb implements the wire codec of the Riak protocol-buffers
// interface (PBC).
//
// It only serializes and parses frames; connection management, request
// correlation and object mapping live in the parent package.
//
// # Framing
//
// Every message travels in a frame:
//
//	<length:uint32 big endian><code:uint8><protobuf body>
//
// The length counts the code byte and the body. Codes are enumerated by
// MessageCode (0-28).
//
// # Messages
//
// Core key/value messages are modeled as Go structs with proto2 optional
// semantics: optional scalars are pointers, and nil byte slices are not
// sent. Bodies are encoded with protowire, without generated code.
//
//	frame, err := pb.Encode(&pb.GetReq{
//	    Bucket: []byte("users"),
//	    Key:    []byte("alice"),
//	    R:      pb.Uint32(2),
//	})
//
// Messages the client does not interpret (bucket properties, map-reduce,
// secondary index and search, codes 19-28) decode into *RawMessage, which
// keeps the body untouched.
//
// # Reading
//
// ReadMessage reads and decodes one frame:
//
//	msg, err := pb.ReadMessage(bufio.NewReader(conn))
//	if err != nil {
//	    if pb.ShouldCloseConnection(err) {
//	        conn.Close()
//	    }
//	    return err
//	}
//	if e, ok := msg.(*pb.ErrorResp); ok {
//	    return e.Err()
//	}
//
// # Error Handling
//
//   - *DecodeError: unknown code, bad length or malformed body; close the connection
//   - *ServerError: built from an ErrorResp frame; the connection stays usable
//   - I/O errors: close the connection
package pb
