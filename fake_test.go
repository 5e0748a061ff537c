package ice

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allbin/go-ice/transport"
)

// fakeTransport answers every command through handler and records the wire
// order. Submitted commands complete immediately unless hold is set.
type fakeTransport struct {
	handler    func(cmd string) (string, error)
	connectErr error
	ports      []transport.PortInfo

	connected bool
	logging   bool
	hold      bool
	wire      []string
	held      []transport.Completion
	completed []transport.Completion
	connects  []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		handler: func(cmd string) (string, error) {
			return "OK\r\n", nil
		},
	}
}

func (f *fakeTransport) Connect(port string, timeout time.Duration) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	if f.connected {
		return transport.ErrAlreadyOpen
	}
	f.connected = true
	f.connects = append(f.connects, port)
	f.completed = nil
	f.held = nil
	return nil
}

func (f *fakeTransport) Disconnect() error {
	if !f.connected {
		return transport.ErrNotOpen
	}
	f.connected = false
	return nil
}

func (f *fakeTransport) ListPorts() ([]transport.PortInfo, error) {
	return f.ports, nil
}

func (f *fakeTransport) Send(ctx context.Context, command string) (string, error) {
	if !f.connected {
		return "", transport.ErrNotOpen
	}
	f.wire = append(f.wire, command)
	return f.handler(command)
}

func (f *fakeTransport) Submit(command string) (uuid.UUID, error) {
	if !f.connected {
		return uuid.Nil, transport.ErrNotOpen
	}
	f.wire = append(f.wire, command)
	payload, err := f.handler(command)
	c := transport.Completion{ID: uuid.New(), Command: command, Payload: payload, Err: err}
	if f.hold {
		f.held = append(f.held, c)
	} else {
		f.completed = append(f.completed, c)
	}
	return c.ID, nil
}

func (f *fakeTransport) Responses() []transport.Completion {
	batch := f.completed
	f.completed = nil
	return batch
}

func (f *fakeTransport) Connected() bool    { return f.connected }
func (f *fakeTransport) Logging() bool      { return f.logging }
func (f *fakeTransport) SetLogging(on bool) { f.logging = on }

// release completes the held submissions
func (f *fakeTransport) release() {
	f.completed = append(f.completed, f.held...)
	f.held = nil
}

func (f *fakeTransport) selects() []string {
	var out []string
	for _, cmd := range f.wire {
		if strings.HasPrefix(cmd, selectPrefix) {
			out = append(out, cmd)
		}
	}
	return out
}

// recorder collects callback invocations in order.
type recorder struct {
	calls   []string
	results []Result
}

func (r *recorder) callback(name string) Callback {
	return CallbackFunc(func(res Result) {
		r.calls = append(r.calls, name)
		r.results = append(r.results, res)
	})
}
