package ice

import (
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout is the response timeout handed to the transport on open.
const DefaultTimeout = 500 * time.Millisecond

type options struct {
	logger  *zap.Logger
	timeout time.Duration
}

// Option configures a Controller
type Option func(*options) error

func defaultOptions() options {
	return options{
		logger:  zap.NewNop(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return ErrInvalidConfig
		}
		o.logger = logger
		return nil
	}
}

// WithTimeout sets the per-response timeout used when opening a port
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) error {
		if timeout <= 0 {
			return ErrInvalidConfig
		}
		o.timeout = timeout
		return nil
	}
}
