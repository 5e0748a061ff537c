package ice

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/allbin/go-ice/transport"
)

type pendingCall struct {
	command  string
	slave    Slave
	callback Callback
}

// Queue hands commands to the transport without waiting for the answer and
// remembers their callbacks by request ID.
type Queue struct {
	transport Transport
	selector  *Selector
	pending   map[uuid.UUID]pendingCall
}

// NewQueue returns an empty Queue sharing selector
func NewQueue(t Transport, selector *Selector) *Queue {
	return &Queue{
		transport: t,
		selector:  selector,
		pending:   make(map[uuid.UUID]pendingCall),
	}
}

// Enqueue selects addr if needed, then queues command. Only the select can
// block. Send failures reach cb, not the caller.
func (q *Queue) Enqueue(ctx context.Context, command string, addr Slave, cb Callback) (uuid.UUID, error) {
	if err := q.selector.Ensure(ctx, addr); err != nil {
		return uuid.Nil, err
	}
	return q.submit(command, addr, cb)
}

// EnqueueCurrent queues command for whichever slave is selected now.
func (q *Queue) EnqueueCurrent(command string, cb Callback) (uuid.UUID, error) {
	return q.submit(command, q.selector.Current(), cb)
}

func (q *Queue) submit(command string, addr Slave, cb Callback) (uuid.UUID, error) {
	id, err := q.transport.Submit(command)
	if errors.Is(err, transport.ErrNotOpen) {
		return uuid.Nil, errors.Wrap(ErrNotConnected, command)
	}
	if err != nil {
		return uuid.Nil, &DispatchError{Kind: KindTransport, Command: command, Slave: addr, Err: err}
	}

	q.pending[id] = pendingCall{command: command, slave: addr, callback: cb}
	return id, nil
}

// Pending returns the number of queued commands whose completion has not been drained
func (q *Queue) Pending() int {
	return len(q.pending)
}

func (q *Queue) lookup(id uuid.UUID) (pendingCall, bool) {
	call, ok := q.pending[id]
	return call, ok
}

func (q *Queue) claim(id uuid.UUID) (pendingCall, bool) {
	call, ok := q.pending[id]
	if ok {
		delete(q.pending, id)
	}
	return call, ok
}

func (q *Queue) reset() {
	clear(q.pending)
}
