package ice

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/allbin/go-ice/transport"
)

// State is the connection state of a Controller
type State int

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Controller is the host-facing side of one transport: slot selection,
// blocking and queued commands, and response draining.
type Controller struct {
	transport  Transport
	logger     *zap.Logger
	timeout    time.Duration
	selector   *Selector
	dispatcher *Dispatcher
	queue      *Queue
	drain      *Drain

	state State
	port  string
}

// New returns a disconnected Controller driving t
func New(t Transport, opts ...Option) (*Controller, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	selector := NewSelector(t, o.logger)
	queue := NewQueue(t, selector)
	return &Controller{
		transport:  t,
		logger:     o.logger,
		timeout:    o.timeout,
		selector:   selector,
		dispatcher: NewDispatcher(t, selector, o.logger),
		queue:      queue,
		drain:      NewDrain(t, queue, o.logger),
	}, nil
}

// SetSlot selects addr on the channel if it is not selected already
func (c *Controller) SetSlot(ctx context.Context, addr Slave) error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.selector.Ensure(ctx, addr)
}

// Send runs command on addr and waits for the answer. A valid cb is also
// invoked with the outcome before Send returns.
func (c *Controller) Send(ctx context.Context, command string, addr Slave, cb Callback) (Response, error) {
	if err := c.ready(); err != nil {
		return Response{Command: command, Slave: addr}, err
	}

	resp, err := c.dispatcher.Send(ctx, command, addr)
	if invokable(cb) {
		cb.Invoke(Result{Response: resp, Err: err})
	}
	return resp, err
}

// Enqueue queues command for the currently selected slot. It fails with
// ErrInvalidSlave while no slot is selected; use SetSlot or EnqueueTo first.
func (c *Controller) Enqueue(command string, cb Callback) error {
	if err := c.ready(); err != nil {
		return err
	}
	if c.selector.Current() == NoSlave {
		return errors.Wrap(ErrInvalidSlave, "no slot selected")
	}
	_, err := c.queue.EnqueueCurrent(command, cb)
	return err
}

// EnqueueTo selects addr if needed and queues command for it
func (c *Controller) EnqueueTo(ctx context.Context, command string, addr Slave, cb Callback) error {
	if err := c.ready(); err != nil {
		return err
	}
	_, err := c.queue.Enqueue(ctx, command, addr, cb)
	return err
}

// ProcessResponses invokes the callbacks of every queued command completed
// so far and returns how many ran. It also works after the port is lost, so
// failures of the commands still queued at that point are delivered.
func (c *Controller) ProcessResponses() int {
	c.sync()
	return c.drain.DrainAll()
}

// PeekCallback returns the callback of the oldest completed command without running it.
func (c *Controller) PeekCallback() (Callback, bool) {
	return c.drain.PeekFirstCallback()
}

// Pending returns the number of queued commands not yet delivered to a callback
func (c *Controller) Pending() int {
	return c.queue.Pending()
}

// SerialOpen opens port and reports success. The cause of a failure is logged.
func (c *Controller) SerialOpen(port string) bool {
	if err := c.Open(port); err != nil {
		c.logger.Error("serial open failed", zap.String("port", port), zap.Error(err))
		return false
	}
	return true
}

// Open opens port, closing any port already open. The slot selection is
// forgotten either way.
func (c *Controller) Open(port string) error {
	c.sync()
	if c.state == StateConnected {
		if err := c.SerialClose(); err != nil {
			c.logger.Warn("closing previous port", zap.String("port", c.port), zap.Error(err))
		}
	}

	c.reset()
	if err := c.transport.Connect(port, c.timeout); err != nil {
		return &DispatchError{Kind: KindConnection, Port: port, Slave: NoSlave, Err: err}
	}

	c.state = StateConnected
	c.port = port
	c.logger.Info("serial open", zap.String("port", port))
	return nil
}

// SerialClose closes the port. Queued commands that have not been drained
// are dropped without invoking their callbacks.
func (c *Controller) SerialClose() error {
	err := c.transport.Disconnect()
	if errors.Is(err, transport.ErrNotOpen) {
		err = nil
	}

	if c.state == StateConnected {
		c.logger.Info("serial closed", zap.String("port", c.port), zap.Int("dropped", c.queue.Pending()))
	}
	c.reset()
	c.state = StateDisconnected
	c.port = ""
	return err
}

// SerialPorts returns the device paths of the ports on the host
func (c *Controller) SerialPorts() ([]string, error) {
	ports, err := c.transport.ListPorts()
	if err != nil {
		return nil, errors.Wrap(err, "list ports")
	}

	names := make([]string, 0, len(ports))
	for _, p := range ports {
		if p.Path != "" {
			names = append(names, p.Path)
		} else {
			names = append(names, p.Name)
		}
	}
	return names, nil
}

// Logging reports whether the transport logs traffic
func (c *Controller) Logging() bool {
	return c.transport.Logging()
}

// SetLogging toggles traffic logging on the transport
func (c *Controller) SetLogging(enabled bool) {
	c.transport.SetLogging(enabled)
}

// Slot returns the selected slave, or NoSlave
func (c *Controller) Slot() Slave {
	return c.selector.Current()
}

// State returns the connection state
func (c *Controller) State() State {
	c.sync()
	return c.state
}

// Port returns the open port, or ""
func (c *Controller) Port() string {
	return c.port
}

func (c *Controller) ready() error {
	c.sync()
	if c.state != StateConnected {
		return ErrNotConnected
	}
	return nil
}

// sync notices a transport that lost its port on its own.
func (c *Controller) sync() {
	if c.state == StateConnected && !c.transport.Connected() {
		c.logger.Warn("port lost", zap.String("port", c.port))
		c.state = StateDisconnected
		c.selector.Reset()
	}
}

func (c *Controller) reset() {
	c.selector.Reset()
	c.queue.reset()
	c.drain.reset()
}
