package ice

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dispatcher sends commands and waits for their answers.
type Dispatcher struct {
	transport Transport
	selector  *Selector
	logger    *zap.Logger
}

// NewDispatcher returns a Dispatcher sharing selector
func NewDispatcher(t Transport, selector *Selector, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{transport: t, selector: selector, logger: logger}
}

// Send selects addr if needed, sends command and returns the raw answer.
// An answer carrying the error marker is returned as a KindProtocol
// *DispatchError, never as a Response.
func (d *Dispatcher) Send(ctx context.Context, command string, addr Slave) (Response, error) {
	resp := Response{ID: uuid.New(), Command: command, Slave: addr}

	if err := d.selector.Ensure(ctx, addr); err != nil {
		d.logger.Error("select failed",
			zap.String("command", command),
			zap.Int("slave", int(addr)),
			zap.Error(err))
		return resp, err
	}

	payload, err := d.transport.Send(ctx, command)
	if err != nil {
		d.logger.Error("command failed",
			zap.String("command", command),
			zap.Int("slave", int(addr)),
			zap.Error(err))
		return resp, &DispatchError{Kind: KindTransport, Command: command, Slave: addr, Err: err}
	}

	if IsDeviceError(payload) {
		d.logger.Error("device reported an error",
			zap.String("command", command),
			zap.Int("slave", int(addr)),
			zap.String("payload", payload))
		return resp, &DispatchError{Kind: KindProtocol, Command: command, Slave: addr, Payload: trimPayload(payload)}
	}

	resp.Payload = payload
	return resp, nil
}
