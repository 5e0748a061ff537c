package ice

import (
	"go.uber.org/zap"

	"github.com/allbin/go-ice/transport"
)

// Drain delivers completed queued commands to their callbacks.
type Drain struct {
	transport Transport
	queue     *Queue
	logger    *zap.Logger
	completed []transport.Completion
}

// NewDrain returns a Drain for commands queued through q
func NewDrain(t Transport, q *Queue, logger *zap.Logger) *Drain {
	return &Drain{transport: t, queue: q, logger: logger}
}

// DrainAll takes everything the transport has completed so far and invokes
// each attached callback once, oldest first, on the calling goroutine.
// Completions without a callback are dropped. It returns the number of
// callbacks invoked.
func (d *Drain) DrainAll() int {
	d.pull()
	batch := d.completed
	d.completed = nil

	invoked := 0
	for _, c := range batch {
		call, ok := d.queue.claim(c.ID)
		if !ok {
			d.logger.Debug("dropping unknown completion", zap.Stringer("id", c.ID), zap.String("command", c.Command))
			continue
		}
		if !invokable(call.callback) {
			continue
		}
		call.callback.Invoke(d.result(c, call))
		invoked++
	}
	return invoked
}

// PeekFirstCallback returns the callback of the oldest completion without
// invoking it. The completion stays queued for the next DrainAll. The
// callback is nil when the command was queued without one.
func (d *Drain) PeekFirstCallback() (Callback, bool) {
	d.pull()
	if len(d.completed) == 0 {
		return nil, false
	}
	call, _ := d.queue.lookup(d.completed[0].ID)
	return call.callback, true
}

// Pending returns the number of completions pulled but not yet delivered
func (d *Drain) Pending() int {
	return len(d.completed)
}

func (d *Drain) pull() {
	d.completed = append(d.completed, d.transport.Responses()...)
}

func (d *Drain) result(c transport.Completion, call pendingCall) Result {
	resp := Response{ID: c.ID, Command: call.command, Slave: call.slave}

	switch {
	case c.Err != nil:
		d.logger.Error("queued command failed",
			zap.String("command", call.command),
			zap.Int("slave", int(call.slave)),
			zap.Error(c.Err))
		return Result{Response: resp, Err: &DispatchError{Kind: KindTransport, Command: call.command, Slave: call.slave, Err: c.Err}}
	case IsDeviceError(c.Payload):
		d.logger.Error("device reported an error",
			zap.String("command", call.command),
			zap.Int("slave", int(call.slave)),
			zap.String("payload", c.Payload))
		return Result{Response: resp, Err: &DispatchError{Kind: KindProtocol, Command: call.command, Slave: call.slave, Payload: trimPayload(c.Payload)}}
	}

	resp.Payload = trimPayload(c.Payload)
	return Result{Response: resp}
}

func (d *Drain) reset() {
	d.completed = nil
}
