package pb

import (
	"errors"
	"fmt"
)

// Error types for the protocol layer.
// These help the transport decide whether a connection can be kept
// after a failure.

// ServerError represents an ErrorResp frame sent by the store.
// The server answered the request with an explicit error; the protocol
// state of the connection is still valid.
//
// Common causes:
//   - Quorum could not be met (e.g. "{pr_val_unsatisfied,2,1}")
//   - if_none_match / if_not_modified precondition failed ("match_found", "modified")
//   - Invalid bucket or request parameters
//
// Connection handling: connection can be REUSED
type ServerError struct {
	Message string
	Code    uint32
}

func (e *ServerError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("riak: server error %d: %s", e.Code, e.Message)
	}
	return "riak: server error: " + e.Message
}

// ShouldCloseConnection returns false - server errors don't corrupt protocol state
func (e *ServerError) ShouldCloseConnection() bool {
	return false
}

// DecodeError is returned when a frame cannot be decoded.
// Either the message code is outside the enumeration or the body is not a
// valid encoding of the message the code announces.
//
// Connection handling: CLOSE, the byte stream can no longer be trusted
type DecodeError struct {
	Code    MessageCode
	Message string
	Err     error
}

func (e *DecodeError) Error() string {
	msg := "riak: decode " + e.Code.String() + ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns true - decode errors leave the stream in an unknown state
func (e *DecodeError) ShouldCloseConnection() bool {
	return true
}

// ErrorWithConnectionState is implemented by errors that know whether the
// connection they happened on must be closed.
type ErrorWithConnectionState interface {
	error
	ShouldCloseConnection() bool
}

// ShouldCloseConnection reports whether err requires closing the connection.
// Unknown errors (I/O failures included) are treated conservatively.
func ShouldCloseConnection(err error) bool {
	if err == nil {
		return false
	}

	var e ErrorWithConnectionState
	if errors.As(err, &e) {
		return e.ShouldCloseConnection()
	}

	return true
}
