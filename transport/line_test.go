package transport

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/allbin/go-ice/serial"
)

func newTestLine(t *testing.T, devices ...*fakeDevice) *Line {
	t.Helper()
	l, err := New(WithOpener(openerFor(devices...)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return l
}

func connect(t *testing.T, l *Line, timeout time.Duration) {
	t.Helper()
	if err := l.Connect("/dev/ttyACM0", timeout); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { _ = l.Disconnect() })
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.BaudRate != 115200 {
		t.Errorf("Expected baud rate 115200, got %d", config.BaudRate)
	}
	if config.Timeout != 500*time.Millisecond {
		t.Errorf("Expected timeout 500ms, got %v", config.Timeout)
	}
	if config.Terminator != "\r\n" {
		t.Errorf("Expected CRLF terminator, got %q", config.Terminator)
	}
	if config.Logging {
		t.Error("Logging should be off by default")
	}
	if config.Logger == nil || config.Opener == nil {
		t.Error("Logger and Opener should have defaults")
	}
}

func TestInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero baud", WithBaudRate(0)},
		{"negative timeout", WithTimeout(-time.Second)},
		{"nil logger", WithLogger(nil)},
		{"nil opener", WithOpener(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opt); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSendRoundTrip(t *testing.T) {
	dev := newFakeDevice(echoHandler)
	l := newTestLine(t, dev)
	connect(t, l, 0)

	payload, err := l.Send(context.Background(), "#slave 2")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if payload != "OK #slave 2\r\n" {
		t.Errorf("Expected raw payload with terminator, got %q", payload)
	}
	if got := dev.commands(); !reflect.DeepEqual(got, []string{"#slave 2"}) {
		t.Errorf("Device saw %v", got)
	}
}

func TestSendSplitResponse(t *testing.T) {
	dev := newFakeDevice(func(cmd string) string { return "" })
	l := newTestLine(t, dev)
	connect(t, l, time.Second)

	go func() {
		time.Sleep(20 * time.Millisecond)
		dev.mu.Lock()
		dev.rx.WriteString("temp ")
		dev.mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		dev.mu.Lock()
		dev.rx.WriteString("21.5\r\nstale\r\n")
		dev.mu.Unlock()
	}()

	payload, err := l.Send(context.Background(), "temp?")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if payload != "temp 21.5\r\n" {
		t.Errorf("Expected first line only, got %q", payload)
	}
}

func TestSendNotOpen(t *testing.T) {
	l := newTestLine(t)

	if _, err := l.Send(context.Background(), "x"); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Expected ErrNotOpen from Send, got %v", err)
	}
	if _, err := l.Submit("x"); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Expected ErrNotOpen from Submit, got %v", err)
	}
	if err := l.Disconnect(); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Expected ErrNotOpen from Disconnect, got %v", err)
	}
}

func TestConnectTwice(t *testing.T) {
	l := newTestLine(t, newFakeDevice(echoHandler), newFakeDevice(echoHandler))
	connect(t, l, 0)

	if err := l.Connect("/dev/ttyACM1", 0); !errors.Is(err, ErrAlreadyOpen) {
		t.Errorf("Expected ErrAlreadyOpen, got %v", err)
	}
	if l.Port() != "/dev/ttyACM0" {
		t.Errorf("Port changed to %q", l.Port())
	}
}

func TestConnectOpenError(t *testing.T) {
	l, err := New(WithOpener(func(port string, baudRate int) (io.ReadWriteCloser, error) {
		return nil, serial.ErrDeviceNotFound
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	err = l.Connect("/dev/ttyACM9", 0)
	if !errors.Is(err, serial.ErrDeviceNotFound) {
		t.Errorf("Expected ErrDeviceNotFound, got %v", err)
	}
	if l.Connected() {
		t.Error("Line should not be connected")
	}
}

func TestSendTimeout(t *testing.T) {
	dev := newFakeDevice(func(cmd string) string {
		if cmd == "silent" {
			return ""
		}
		return echoHandler(cmd)
	})
	l := newTestLine(t, dev)
	connect(t, l, 50*time.Millisecond)

	start := time.Now()
	_, err := l.Send(context.Background(), "silent")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Timed out too early: %v", elapsed)
	}

	if !l.Connected() {
		t.Fatal("Timeout should not close the line")
	}
	if payload, err := l.Send(context.Background(), "ping"); err != nil || payload != "OK ping\r\n" {
		t.Errorf("Send after timeout = %q, %v", payload, err)
	}
}

func TestSendContextCancelled(t *testing.T) {
	dev := newFakeDevice(func(cmd string) string {
		time.Sleep(100 * time.Millisecond)
		return echoHandler(cmd)
	})
	l := newTestLine(t, dev)
	connect(t, l, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := l.Send(ctx, "slow")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}
	if !errors.Is(err, ErrAbandoned) {
		t.Errorf("Written command should report ErrAbandoned, got %v", err)
	}
}

func TestSendCancelledWhileQueued(t *testing.T) {
	dev := newFakeDevice(func(cmd string) string {
		if cmd == "slow" {
			time.Sleep(100 * time.Millisecond)
		}
		return echoHandler(cmd)
	})
	l := newTestLine(t, dev)
	connect(t, l, time.Second)

	if _, err := l.Submit("slow"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := l.Send(ctx, "queued")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected context.DeadlineExceeded, got %v", err)
	}
	if errors.Is(err, ErrAbandoned) {
		t.Errorf("Queued command was withdrawn, should not report ErrAbandoned")
	}

	if _, err := l.Send(context.Background(), "after"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got := dev.commands(); !reflect.DeepEqual(got, []string{"slow", "after"}) {
		t.Errorf("Wire order = %v, withdrawn command must not be written", got)
	}
}

func TestSendCancelledBeforeQueueing(t *testing.T) {
	dev := newFakeDevice(echoHandler)
	l := newTestLine(t, dev)
	connect(t, l, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Send(ctx, "never"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if got := dev.commands(); len(got) != 0 {
		t.Errorf("Wire = %v, expected nothing written", got)
	}
}

func TestSubmitOrdering(t *testing.T) {
	dev := newFakeDevice(echoHandler)
	l := newTestLine(t, dev)
	connect(t, l, 0)

	var ids []uuid.UUID
	for _, cmd := range []string{"a", "b", "c"} {
		id, err := l.Submit(cmd)
		if err != nil {
			t.Fatalf("Submit(%s) failed: %v", cmd, err)
		}
		ids = append(ids, id)
	}

	// A blocking send queues behind the submitted commands.
	if _, err := l.Send(context.Background(), "d"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if got := dev.commands(); !reflect.DeepEqual(got, []string{"a", "b", "c", "d"}) {
		t.Errorf("Wire order = %v", got)
	}

	batch := l.Responses()
	if len(batch) != 3 {
		t.Fatalf("Expected 3 completions, got %d", len(batch))
	}
	for i, c := range batch {
		if c.ID != ids[i] {
			t.Errorf("Completion %d has ID %s, expected %s", i, c.ID, ids[i])
		}
		if c.Payload != "OK "+c.Command+"\r\n" || c.Err != nil {
			t.Errorf("Completion %d = %+v", i, c)
		}
	}

	if again := l.Responses(); len(again) != 0 {
		t.Errorf("Responses should be cleared, got %d", len(again))
	}
}

func TestSubmitDoesNotBlock(t *testing.T) {
	dev := newFakeDevice(func(cmd string) string {
		time.Sleep(200 * time.Millisecond)
		return echoHandler(cmd)
	})
	l := newTestLine(t, dev)
	connect(t, l, time.Second)

	start := time.Now()
	if _, err := l.Submit("slow"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Submit blocked for %v", elapsed)
	}
	if batch := l.Responses(); len(batch) != 0 {
		t.Errorf("Slow command completed too early: %+v", batch)
	}
}

func TestLostPort(t *testing.T) {
	first := newFakeDevice(echoHandler)
	second := newFakeDevice(echoHandler)
	l := newTestLine(t, first, second)
	connect(t, l, time.Second)

	first.setReadErr(errors.New("input/output error"))
	if _, err := l.Send(context.Background(), "ping"); err == nil {
		t.Fatal("Expected error from lost port")
	}

	deadline := time.Now().Add(time.Second)
	for l.Connected() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if l.Connected() {
		t.Fatal("Line should report disconnected after a fatal read error")
	}
	for !first.isClosed() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !first.isClosed() {
		t.Error("Lost port should be closed")
	}
	if _, err := l.Submit("x"); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Expected ErrNotOpen after loss, got %v", err)
	}

	if err := l.Connect("/dev/ttyACM0", 0); err != nil {
		t.Fatalf("Reconnect failed: %v", err)
	}
	if payload, err := l.Send(context.Background(), "ping"); err != nil || payload != "OK ping\r\n" {
		t.Errorf("Send after reconnect = %q, %v", payload, err)
	}
}

func TestDisconnect(t *testing.T) {
	dev := newFakeDevice(echoHandler)
	l := newTestLine(t, dev)
	if err := l.Connect("/dev/ttyACM0", 0); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if err := l.Disconnect(); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if !dev.isClosed() {
		t.Error("Device should be closed")
	}
	if l.Connected() || l.Port() != "" {
		t.Error("Line should report closed")
	}
	if err := l.Disconnect(); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Expected ErrNotOpen, got %v", err)
	}
}

func TestTrafficLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	dev := newFakeDevice(echoHandler)
	l, err := New(WithOpener(openerFor(dev)), WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	connect(t, l, 0)

	if _, err := l.Send(context.Background(), "quiet"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if n := logs.FilterMessage("tx").Len(); n != 0 {
		t.Errorf("Expected no traffic logs while disabled, got %d", n)
	}

	l.SetLogging(true)
	if !l.Logging() {
		t.Fatal("Logging() should be true")
	}
	if _, err := l.Send(context.Background(), "loud"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	tx := logs.FilterMessage("tx").FilterField(zap.String("command", "loud"))
	if tx.Len() != 1 {
		t.Errorf("Expected one tx entry for loud, got %d", tx.Len())
	}
	rx := logs.FilterMessage("rx").AllUntimed()
	if len(rx) != 1 || !strings.Contains(rx[0].ContextMap()["payload"].(string), "OK loud") {
		t.Errorf("Unexpected rx entries: %+v", rx)
	}
}

func TestReadLine(t *testing.T) {
	tests := []struct {
		name    string
		chunks  []string
		want    string
		wantErr error
	}{
		{"single chunk", []string{"OK\r\n"}, "OK\r\n", nil},
		{"split chunks", []string{"I2C ", "Error: timeout\r", "\n"}, "I2C Error: timeout\r\n", nil},
		{"trailing data dropped", []string{"one\ntwo\n"}, "one\n", nil},
		{"no terminator", []string{"partial"}, "partial", ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &chunkReader{chunks: tt.chunks}
			got, err := readLine(r, time.Now().Add(20*time.Millisecond), make(chan struct{}))
			if got != tt.want {
				t.Errorf("readLine() = %q, expected %q", got, tt.want)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("readLine() error = %v, expected %v", err, tt.wantErr)
			}
		})
	}
}

func TestReadLineDone(t *testing.T) {
	done := make(chan struct{})
	close(done)

	_, err := readLine(&chunkReader{}, time.Now().Add(time.Second), done)
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

type chunkReader struct {
	chunks []string
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]
	return n, nil
}
