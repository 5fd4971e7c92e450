package dispatch

import (
	"log/slog"
	"time"

	"github.com/aretw0/relay/pkg/adapters/process"
	"github.com/aretw0/relay/pkg/adapters/serial"
	"github.com/aretw0/relay/pkg/adapters/shell"
	"github.com/aretw0/relay/pkg/deadline"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/transport"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets a structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// WithController injects a custom deadline controller.
func WithController(c *deadline.Controller) Option {
	return func(d *Dispatcher) { d.clock = c }
}

// WithGate wires the confirmation gate used for confirm-mode commands.
func WithGate(g ConfirmGate) Option {
	return func(d *Dispatcher) { d.gate = g }
}

// WithDialerFactory overrides the factory for one transport kind.
func WithDialerFactory(kind domain.Transport, f DialerFactory) Option {
	return func(d *Dispatcher) { d.factories[kind] = f }
}

// WithQuiescence sets how long a transport must stay silent (after producing
// at least one byte) to count as naturally complete.
func WithQuiescence(window time.Duration) Option {
	return func(d *Dispatcher) {
		if window > 0 {
			d.quiet = window
		}
	}
}

// WithPollInterval sets the drain cycle interval.
func WithPollInterval(interval time.Duration) Option {
	return func(d *Dispatcher) {
		if interval > 0 {
			d.poll = interval
		}
	}
}

// WithDrainGrace sets the post-kill flush bound.
func WithDrainGrace(grace time.Duration) Option {
	return func(d *Dispatcher) {
		if grace > 0 {
			d.drainGrace = grace
		}
	}
}

// WithLineModeArm sets the one-time arming write sent before an AT-mode
// command.
func WithLineModeArm(p []byte) Option {
	return func(d *Dispatcher) { d.arm = p }
}

// WithTerminator sets the byte sequence appended to payloads on line
// transports.
func WithTerminator(p []byte) Option {
	return func(d *Dispatcher) { d.terminator = p }
}

func defaultFactories() map[domain.Transport]DialerFactory {
	return map[domain.Transport]DialerFactory{
		domain.TransportProcess: processFactory,
		domain.TransportSession: sessionFactory,
		domain.TransportSerial:  serialFactory,
	}
}

func processFactory(cmd domain.Command) (transport.Dialer, error) {
	cfg := process.Config{}
	if cmd.Params != nil {
		c, ok := cmd.Params.(process.Config)
		if !ok {
			return nil, &domain.ValidationError{Field: "params", Reason: "process transport expects process.Config params"}
		}
		cfg = c
	}
	return process.New(cmd.Argv, cfg)
}

func sessionFactory(cmd domain.Command) (transport.Dialer, error) {
	cfg, ok := cmd.Params.(shell.Config)
	if !ok {
		return nil, &domain.ValidationError{Field: "params", Reason: "session transport requires shell.Config params"}
	}
	return shell.New(cfg)
}

func serialFactory(cmd domain.Command) (transport.Dialer, error) {
	cfg, ok := cmd.Params.(serial.Config)
	if !ok {
		return nil, &domain.ValidationError{Field: "params", Reason: "serial transport requires serial.Config params"}
	}
	return serial.New(cfg)
}
