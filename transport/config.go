package transport

import (
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/allbin/go-ice/serial"
)

// Opener opens the byte stream behind a Line.
type Opener func(port string, baudRate int) (io.ReadWriteCloser, error)

// Config holds line settings
type Config struct {
	BaudRate   int
	Timeout    time.Duration
	Terminator string
	Logging    bool
	Logger     *zap.Logger
	Opener     Opener
}

// Option configures a Line
type Option func(*Config) error

// DefaultConfig returns 115200 baud, a 500ms response timeout and CRLF terminated commands.
func DefaultConfig() Config {
	return Config{
		BaudRate:   115200,
		Timeout:    500 * time.Millisecond,
		Terminator: "\r\n",
		Logger:     zap.NewNop(),
		Opener:     openSerial,
	}
}

// WithBaudRate sets the baud rate used when opening the port
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if rate <= 0 {
			return ErrInvalidConfig
		}
		c.BaudRate = rate
		return nil
	}
}

// WithTimeout sets the default response timeout. Connect may override it.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout <= 0 {
			return ErrInvalidConfig
		}
		c.Timeout = timeout
		return nil
	}
}

// WithTerminator sets the bytes appended to every command
func WithTerminator(term string) Option {
	return func(c *Config) error {
		c.Terminator = term
		return nil
	}
}

// WithLogging enables TX/RX logging from the start
func WithLogging(enabled bool) Option {
	return func(c *Config) error {
		c.Logging = enabled
		return nil
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) error {
		if logger == nil {
			return ErrInvalidConfig
		}
		c.Logger = logger
		return nil
	}
}

// WithOpener replaces the serial port opener
func WithOpener(open Opener) Option {
	return func(c *Config) error {
		if open == nil {
			return ErrInvalidConfig
		}
		c.Opener = open
		return nil
	}
}

// pollInterval is the termios read timeout; the line deadline is enforced on top of it.
const pollInterval = 100 * time.Millisecond

func openSerial(port string, baudRate int) (io.ReadWriteCloser, error) {
	return serial.Open(port,
		serial.WithBaudRate(baudRate),
		serial.WithReadTimeout(pollInterval),
	)
}
