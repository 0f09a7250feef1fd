package sessions

import (
	"errors"
	"fmt"

	"github.com/xiaot623/gogo/sdk/transport"
)

var (
	// ErrInvalidArgument is matched by every local validation failure. No
	// request is sent when it is returned.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound and ErrTransport are the transport's errors, surfaced unchanged.
	ErrNotFound  = transport.ErrNotFound
	ErrTransport = transport.ErrTransport

	// ErrStreamInterrupted is matched when a chat stream ends abnormally.
	// Fragments received before it stay valid.
	ErrStreamInterrupted = transport.ErrStreamInterrupted

	// ErrStreamConsumed is returned when a chat stream is iterated twice.
	ErrStreamConsumed = errors.New("chat stream already consumed")

	// ErrStreamClosed is returned by Recv after Close.
	ErrStreamClosed = errors.New("chat stream closed")
)

// ArgumentError describes a rejected argument.
type ArgumentError struct {
	Name   string
	Value  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s=%q: %s", e.Name, e.Value, e.Reason)
}

func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}
