package ice

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/allbin/go-ice/transport"
)

// Selector remembers which slave the channel is addressed to.
type Selector struct {
	transport Transport
	logger    *zap.Logger
	current   Slave
}

// NewSelector returns a Selector with no slave selected
func NewSelector(t Transport, logger *zap.Logger) *Selector {
	return &Selector{transport: t, logger: logger, current: NoSlave}
}

// Ensure switches the channel to addr unless it is already selected. On a
// failure that left the module untouched the remembered slave stays as it
// was. When the select may have reached the channel without an answer (a
// response timeout, or ctx ending after the write) the selection is
// forgotten, so the next call selects its target again.
func (s *Selector) Ensure(ctx context.Context, addr Slave) error {
	if !addr.Valid() {
		return errors.Wrapf(ErrInvalidSlave, "slave %d", int(addr))
	}
	if addr == s.current {
		return nil
	}

	cmd := SelectCommand(addr)
	payload, err := s.transport.Send(ctx, cmd)
	if err != nil {
		if errors.Is(err, transport.ErrTimeout) || errors.Is(err, transport.ErrAbandoned) {
			s.logger.Debug("slave selection unknown", zap.Stringer("from", s.current), zap.Stringer("to", addr), zap.Error(err))
			s.Reset()
		}
		return &DispatchError{Kind: KindTransport, Command: cmd, Slave: addr, Err: err}
	}
	if IsDeviceError(payload) {
		return &DispatchError{Kind: KindProtocol, Command: cmd, Slave: addr, Payload: trimPayload(payload)}
	}

	s.logger.Debug("slave selected", zap.Stringer("from", s.current), zap.Stringer("to", addr))
	s.current = addr
	return nil
}

// Current returns the selected slave, or NoSlave
func (s *Selector) Current() Slave {
	return s.current
}

// Reset forgets the selection
func (s *Selector) Reset() {
	s.current = NoSlave
}
