package riak

import (
	"errors"
	"fmt"
)

var (
	// ErrSiblingsWithoutResolver is returned by Get when the store answers
	// with several values for one key and no resolver was set.
	ErrSiblingsWithoutResolver = errors.New("riak: siblings found but no conflict resolver set")

	// ErrConnectionUnavailable is returned when a request cannot be sent or
	// cannot be answered because of the connection state.
	ErrConnectionUnavailable = errors.New("riak: connection unavailable")

	// ErrConnectionLost fails the requests that were written to a connection
	// that closed before answering them.
	ErrConnectionLost = fmt.Errorf("%w: connection lost", ErrConnectionUnavailable)

	// ErrClientClosed is returned for requests issued after, or pending at, Close.
	ErrClientClosed = errors.New("riak: client closed")

	// ErrInvalidArgument is returned before any I/O when a mandatory argument is missing.
	ErrInvalidArgument = errors.New("riak: invalid argument")
)

// UnsupportedContentTypeError is returned when no registered converter
// matches a content type.
type UnsupportedContentTypeError struct {
	ContentType string
}

func (e *UnsupportedContentTypeError) Error() string {
	return "riak: unsupported content type: " + e.ContentType
}

// ConversionError wraps a converter failure.
type ConversionError struct {
	ContentType string
	Err         error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("riak: convert %s: %v", e.ContentType, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgument}, args...)...)
}
