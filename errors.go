package ice

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConnection is matched by errors from opening the port
	ErrConnection = errors.New("connection error")

	// ErrTransport is matched by send-level failures reported by the transport
	ErrTransport = errors.New("transport error")

	// ErrProtocol is matched when a module answers with the error marker
	ErrProtocol = errors.New("device reported error")

	// ErrNotConnected is returned when a command is issued without an open port
	ErrNotConnected = errors.New("not connected")

	// ErrInvalidSlave is returned for negative slave addresses
	ErrInvalidSlave = errors.New("invalid slave address")

	// ErrInvalidConfig is returned for out-of-range option values
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Kind classifies a DispatchError
type Kind int

const (
	KindConnection Kind = iota
	KindTransport
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindConnection:
		return ErrConnection
	case KindTransport:
		return ErrTransport
	case KindProtocol:
		return ErrProtocol
	default:
		return nil
	}
}

// DispatchError describes a failed open, send or select.
type DispatchError struct {
	Kind    Kind
	Port    string
	Command string
	Slave   Slave
	Payload string // device answer for KindProtocol, trailing whitespace trimmed
	Err     error  // underlying cause
}

func (e *DispatchError) Error() string {
	switch e.Kind {
	case KindConnection:
		return fmt.Sprintf("open %s: %v", e.Port, e.Err)
	case KindProtocol:
		return fmt.Sprintf("slave %s: %q: %s", e.Slave, e.Command, strings.TrimSpace(e.Payload))
	default:
		return fmt.Sprintf("slave %s: %q: %s: %v", e.Slave, e.Command, e.Kind, e.Err)
	}
}

// Is matches the sentinel for the error's kind
func (e *DispatchError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
