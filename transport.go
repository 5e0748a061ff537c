package ice

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allbin/go-ice/transport"
)

// Transport owns the physical channel. transport.Line implements it.
type Transport interface {
	Connect(port string, timeout time.Duration) error
	Disconnect() error
	ListPorts() ([]transport.PortInfo, error)

	// Send blocks until the response line for command arrives.
	Send(ctx context.Context, command string) (string, error)

	// Submit queues command and returns immediately. Its completion is
	// returned, tagged with the same ID, by a later Responses call.
	Submit(command string) (uuid.UUID, error)
	Responses() []transport.Completion

	Connected() bool
	Logging() bool
	SetLogging(enabled bool)
}

var _ Transport = (*transport.Line)(nil)
