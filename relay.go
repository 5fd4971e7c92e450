package relay

import (
	"context"
	"log/slog"

	"github.com/aretw0/relay/internal/logging"
	"github.com/aretw0/relay/internal/presentation/tui"
	"github.com/aretw0/relay/pkg/confirm"
	"github.com/aretw0/relay/pkg/dispatch"
	"github.com/aretw0/relay/pkg/domain"
)

// Version is the current release of the relay module.
const Version = "0.1.0"

// Relay is the high-level entry point for the library. It wraps the
// dispatcher and the confirmation gate behind a single handle so hosts can
// execute commands without wiring the pieces themselves.
type Relay struct {
	dispatcher *dispatch.Dispatcher
	gate       dispatch.ConfirmGate
	presenter  confirm.Presenter
	logger     *slog.Logger
	dispOpts   []dispatch.Option
}

// Option defines a functional option for configuring the Relay.
type Option func(*Relay)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

// WithPresenter injects a custom confirmation presenter, bypassing the
// default terminal prompt.
func WithPresenter(p confirm.Presenter) Option {
	return func(r *Relay) {
		r.presenter = p
	}
}

// WithGate injects a fully built confirmation gate. Takes precedence over
// WithPresenter.
func WithGate(g dispatch.ConfirmGate) Option {
	return func(r *Relay) {
		r.gate = g
	}
}

// WithDispatchOptions forwards options to the underlying dispatcher.
func WithDispatchOptions(opts ...dispatch.Option) Option {
	return func(r *Relay) {
		r.dispOpts = append(r.dispOpts, opts...)
	}
}

// New builds a Relay. By default confirmations are presented on the
// terminal; pass WithPresenter or WithGate to route them elsewhere.
func New(opts ...Option) *Relay {
	r := &Relay{}
	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	if r.gate == nil {
		if r.presenter == nil {
			r.presenter = tui.NewPresenter()
		}
		r.gate = confirm.New(r.presenter, confirm.WithLogger(r.logger))
	}

	dispOpts := append([]dispatch.Option{
		dispatch.WithLogger(r.logger),
		dispatch.WithGate(r.gate),
	}, r.dispOpts...)
	r.dispatcher = dispatch.New(dispOpts...)
	return r
}

// Dispatch runs a single command through its full lifecycle: validation,
// transport open, send, capture, deadline enforcement, teardown, decode.
func (r *Relay) Dispatch(ctx context.Context, cmd domain.Command) (domain.Result, error) {
	return r.dispatcher.Dispatch(ctx, cmd)
}

// Dispatcher exposes the underlying dispatcher for hosts that need to
// register extra transports.
func (r *Relay) Dispatcher() *dispatch.Dispatcher {
	return r.dispatcher
}
