package transport

import (
	"bytes"
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Completion is the outcome of a command handed to Submit.
type Completion struct {
	ID      uuid.UUID
	Command string
	Payload string
	Err     error
}

type request struct {
	id      uuid.UUID
	command string
	reply   chan Completion // nil for submitted requests
}

type inputFlusher interface {
	FlushInput() error
}

type outputFlusher interface {
	FlushOutput() error
}

// Line is a line-oriented request/response transport over a serial port.
// Every command, blocking or not, goes through a single worker goroutine in
// submission order, so responses never interleave on the wire.
type Line struct {
	config  Config
	logger  *zap.Logger
	logging atomic.Bool

	mu        sync.Mutex
	conn      io.ReadWriteCloser
	port      string
	pending   []*request
	wake      chan struct{}
	done      chan struct{}
	connected atomic.Bool
	wg        sync.WaitGroup

	completedMu sync.Mutex
	completed   []Completion
}

// New creates a closed Line
func New(opts ...Option) (*Line, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}

	l := &Line{
		config: config,
		logger: config.Logger.Named("line"),
	}
	l.logging.Store(config.Logging)
	return l, nil
}

// Connect opens port and starts the worker. A timeout <= 0 uses the configured default.
func (l *Line) Connect(port string, timeout time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn != nil {
		return ErrAlreadyOpen
	}
	// A worker that lost its port may still be returning.
	l.wg.Wait()

	conn, err := l.config.Opener(port, l.config.BaudRate)
	if err != nil {
		return errors.Wrapf(err, "connect %s", port)
	}
	if timeout <= 0 {
		timeout = l.config.Timeout
	}

	l.conn = conn
	l.port = port
	l.pending = nil
	l.wake = make(chan struct{}, 1)
	l.done = make(chan struct{})
	l.connected.Store(true)

	l.completedMu.Lock()
	l.completed = nil
	l.completedMu.Unlock()

	l.wg.Add(1)
	go l.run(conn, timeout, l.wake, l.done)

	l.logger.Info("line open",
		zap.String("port", port),
		zap.Int("baud", l.config.BaudRate),
		zap.Duration("timeout", timeout))
	return nil
}

// Disconnect stops the worker and closes the port. Queued requests are dropped.
func (l *Line) Disconnect() error {
	l.mu.Lock()
	if l.conn == nil {
		l.mu.Unlock()
		return ErrNotOpen
	}
	conn, port := l.conn, l.port
	dropped := len(l.pending)
	l.conn = nil
	l.pending = nil
	l.connected.Store(false)
	close(l.done)
	l.mu.Unlock()

	var err error
	if f, ok := conn.(outputFlusher); ok {
		err = multierr.Append(err, f.FlushOutput())
	}
	err = multierr.Append(err, conn.Close())
	l.wg.Wait()

	l.logger.Info("line closed", zap.String("port", port), zap.Int("dropped", dropped))
	return errors.Wrapf(err, "disconnect %s", port)
}

// Send writes command and blocks until its response line arrives, the
// response timeout elapses or ctx is done. When ctx ends first, a command
// still queued is withdrawn and never written, and Send returns ctx.Err().
// A command already written yields ctx.Err() combined with ErrAbandoned.
func (l *Line) Send(ctx context.Context, command string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	req := &request{
		id:      uuid.New(),
		command: command,
		reply:   make(chan Completion, 1),
	}
	done, err := l.push(req)
	if err != nil {
		return "", err
	}

	select {
	case c := <-req.reply:
		return c.Payload, c.Err
	case <-done:
		return "", ErrClosed
	case <-ctx.Done():
		if l.withdraw(req) {
			return "", ctx.Err()
		}
		select {
		case c := <-req.reply:
			return c.Payload, c.Err
		default:
			return "", multierr.Combine(ctx.Err(), ErrAbandoned)
		}
	}
}

// Submit queues command and returns its request ID without waiting.
// The outcome shows up in a later Responses batch.
func (l *Line) Submit(command string) (uuid.UUID, error) {
	req := &request{id: uuid.New(), command: command}
	if _, err := l.push(req); err != nil {
		return uuid.Nil, err
	}
	return req.id, nil
}

// Responses returns and clears the completions collected so far, oldest first.
func (l *Line) Responses() []Completion {
	l.completedMu.Lock()
	defer l.completedMu.Unlock()

	batch := l.completed
	l.completed = nil
	return batch
}

// Connected reports whether the port is open and the worker is running
func (l *Line) Connected() bool {
	return l.connected.Load()
}

// Port returns the path of the open port, or "" when closed
func (l *Line) Port() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return ""
	}
	return l.port
}

// Logging reports whether TX/RX lines are logged
func (l *Line) Logging() bool {
	return l.logging.Load()
}

// SetLogging toggles TX/RX logging
func (l *Line) SetLogging(enabled bool) {
	if l.logging.Swap(enabled) != enabled {
		l.logger.Info("traffic logging", zap.Bool("enabled", enabled))
	}
}

func (l *Line) push(req *request) (<-chan struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn == nil || !l.connected.Load() {
		return nil, ErrNotOpen
	}
	l.pending = append(l.pending, req)
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return l.done, nil
}

// withdraw removes req from the queue unless the worker has taken it already.
func (l *Line) withdraw(req *request) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, r := range l.pending {
		if r == req {
			l.pending = append(l.pending[:i], l.pending[i+1:]...)
			return true
		}
	}
	return false
}

// next pops the oldest pending request, or returns nil when the queue is empty
// or belongs to a newer connection.
func (l *Line) next(done chan struct{}) *request {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done != done || len(l.pending) == 0 {
		return nil
	}
	req := l.pending[0]
	l.pending[0] = nil
	l.pending = l.pending[1:]
	return req
}

func (l *Line) run(conn io.ReadWriteCloser, timeout time.Duration, wake <-chan struct{}, done chan struct{}) {
	defer l.wg.Done()

	for {
		select {
		case <-done:
			return
		case <-wake:
		}

		for req := l.next(done); req != nil; req = l.next(done) {
			payload, err := l.exchange(conn, req, timeout, done)
			l.complete(req, payload, err)

			if err != nil && !errors.Is(err, ErrTimeout) && !errors.Is(err, ErrClosed) {
				l.lost(conn, done, err)
				return
			}
		}
	}
}

func (l *Line) exchange(conn io.ReadWriteCloser, req *request, timeout time.Duration, done <-chan struct{}) (string, error) {
	if f, ok := conn.(inputFlusher); ok {
		if err := f.FlushInput(); err != nil {
			l.logger.Debug("flush input", zap.Error(err))
		}
	}

	trace := l.logging.Load()
	if trace {
		l.logger.Info("tx", zap.Stringer("id", req.id), zap.String("command", req.command))
	}

	if _, err := io.WriteString(conn, req.command+l.config.Terminator); err != nil {
		return "", errors.Wrap(err, "write")
	}

	payload, err := readLine(conn, time.Now().Add(timeout), done)
	if trace {
		l.logger.Info("rx",
			zap.Stringer("id", req.id),
			zap.String("payload", payload),
			zap.Error(err))
	}
	return payload, err
}

func (l *Line) complete(req *request, payload string, err error) {
	c := Completion{ID: req.id, Command: req.command, Payload: payload, Err: err}
	if req.reply != nil {
		req.reply <- c
		return
	}

	l.completedMu.Lock()
	l.completed = append(l.completed, c)
	l.completedMu.Unlock()
}

// lost marks the line disconnected after a fatal I/O error and fails the
// requests still queued behind the one that hit it.
func (l *Line) lost(conn io.ReadWriteCloser, done chan struct{}, cause error) {
	l.mu.Lock()
	if l.done != done || l.conn == nil {
		l.mu.Unlock()
		return
	}
	port := l.port
	pending := l.pending
	l.pending = nil
	l.conn = nil
	l.connected.Store(false)
	l.mu.Unlock()

	l.logger.Error("port lost", zap.String("port", port), zap.Error(cause))
	for _, req := range pending {
		l.complete(req, "", errors.Wrap(ErrClosed, cause.Error()))
	}
	if err := conn.Close(); err != nil {
		l.logger.Debug("close lost port", zap.Error(err))
	}
}

// readLine reads until a '\n' arrives, the deadline passes or done closes.
// Bytes after the first '\n' are discarded.
func readLine(r io.Reader, deadline time.Time, done <-chan struct{}) (string, error) {
	var line []byte
	buf := make([]byte, 256)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			line = append(line, buf[:n]...)
			if i := bytes.IndexByte(line, '\n'); i >= 0 {
				return string(line[:i+1]), nil
			}
		}
		if err != nil && !errors.Is(err, unix.EINTR) && !errors.Is(err, unix.EAGAIN) {
			return string(line), errors.Wrap(err, "read")
		}

		select {
		case <-done:
			return string(line), ErrClosed
		default:
		}
		if !time.Now().Before(deadline) {
			return string(line), ErrTimeout
		}
	}
}
