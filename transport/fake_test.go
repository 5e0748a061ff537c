package transport

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"time"
)

// fakeDevice answers each CRLF terminated command through handler.
type fakeDevice struct {
	handler func(cmd string) string

	mu      sync.Mutex
	tx      bytes.Buffer
	rx      bytes.Buffer
	written []string
	closed  bool
	readErr error
	ready   chan struct{}
}

func newFakeDevice(handler func(cmd string) string) *fakeDevice {
	return &fakeDevice{handler: handler, ready: make(chan struct{}, 1)}
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return 0, io.ErrClosedPipe
	}
	d.tx.Write(p)
	var cmds []string
	for {
		line, err := d.tx.ReadString('\n')
		if err != nil {
			// keep the partial command for the next write
			d.tx.Reset()
			d.tx.WriteString(line)
			break
		}
		cmd := strings.TrimRight(line, "\r\n")
		d.written = append(d.written, cmd)
		cmds = append(cmds, cmd)
	}
	d.mu.Unlock()

	for _, cmd := range cmds {
		reply := d.handler(cmd)
		d.mu.Lock()
		d.rx.WriteString(reply)
		d.mu.Unlock()
		select {
		case d.ready <- struct{}{}:
		default:
		}
	}
	return len(p), nil
}

func (d *fakeDevice) Read(p []byte) (int, error) {
	for {
		d.mu.Lock()
		switch {
		case d.closed:
			d.mu.Unlock()
			return 0, io.ErrClosedPipe
		case d.readErr != nil:
			err := d.readErr
			d.mu.Unlock()
			return 0, err
		case d.rx.Len() > 0:
			n, _ := d.rx.Read(p)
			d.mu.Unlock()
			return n, nil
		}
		d.mu.Unlock()

		select {
		case <-d.ready:
		case <-time.After(5 * time.Millisecond):
			return 0, nil
		}
	}
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return io.ErrClosedPipe
	}
	d.closed = true
	return nil
}

func (d *fakeDevice) FlushInput() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rx.Reset()
	return nil
}

func (d *fakeDevice) setReadErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readErr = err
}

func (d *fakeDevice) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *fakeDevice) commands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.written...)
}

func echoHandler(cmd string) string {
	return "OK " + cmd + "\r\n"
}

func openerFor(devices ...*fakeDevice) Opener {
	var mu sync.Mutex
	return func(port string, baudRate int) (io.ReadWriteCloser, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(devices) == 0 {
			return nil, io.ErrUnexpectedEOF
		}
		d := devices[0]
		devices = devices[1:]
		return d, nil
	}
}
