package transport

import "errors"

var (
	// ErrNotOpen is returned when sending on a line that has no open port
	ErrNotOpen = errors.New("line not open")

	// ErrAlreadyOpen is returned by Connect when a port is already open
	ErrAlreadyOpen = errors.New("line already open")

	// ErrClosed is delivered to requests still queued when the line closes
	ErrClosed = errors.New("line closed")

	// ErrTimeout is returned when no complete response line arrives in time
	ErrTimeout = errors.New("response timeout")

	// ErrAbandoned is combined with the context error when Send gives up on a
	// command that was already written, so the device may have acted on it
	ErrAbandoned = errors.New("request abandoned in flight")

	// ErrInvalidConfig is returned for out-of-range option values
	ErrInvalidConfig = errors.New("invalid line configuration")
)
