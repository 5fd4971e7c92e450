// Package dispatch drives one command through its transport under a hard
// deadline and normalizes whatever happens into a single result contract.
package dispatch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/relay/internal/logging"
	"github.com/aretw0/relay/internal/observability"
	"github.com/aretw0/relay/pkg/codec"
	"github.com/aretw0/relay/pkg/deadline"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/transport"
)

// RunFunc executes a command's background leg for the confirmation gate.
type RunFunc func(ctx context.Context) (domain.Result, error)

// ConfirmGate correlates a background command with an operator decision.
// Implemented by pkg/confirm; injected so the dispatcher stays ignorant of
// how a human is actually asked.
type ConfirmGate interface {
	Confirm(ctx context.Context, cmd domain.Command, run RunFunc) (domain.Result, error)
}

// DialerFactory builds a transport dialer for one command. The factory owns
// interpreting cmd.Params for its backend.
type DialerFactory func(cmd domain.Command) (transport.Dialer, error)

// Dispatcher executes command descriptors. Safe for concurrent use; every
// dispatch owns its transport conn exclusively.
type Dispatcher struct {
	factories map[domain.Transport]DialerFactory
	clock     *deadline.Controller
	gate      ConfirmGate
	log       *slog.Logger

	quiet      time.Duration // silence window that counts as quiescence
	poll       time.Duration // drain cycle interval
	drainGrace time.Duration // post-kill flush bound
	arm        []byte        // one-time line-mode arming write (AT mode)
	terminator []byte        // appended to payloads on line transports
}

// New creates a Dispatcher with the default backend factories wired.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		factories:  defaultFactories(),
		log:        logging.NewNop(),
		quiet:      200 * time.Millisecond,
		poll:       20 * time.Millisecond,
		drainGrace: 250 * time.Millisecond,
		arm:        []byte("\r\n"),
		terminator: []byte("\r\n"),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.clock == nil {
		d.clock = deadline.New(deadline.WithLogger(d.log))
	}
	return d
}

// Dispatch validates and executes one command, producing exactly one Result.
//
// Timeout expiry is a normal outcome (Completed=false), not an error. Open
// failures are typed *domain.OpenError and never retried here. Confirm-mode
// commands are delegated to the gate, which owns the rest of the lifecycle.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd domain.Command) (domain.Result, error) {
	cmd = cmd.Normalized()
	if err := cmd.Validate(); err != nil {
		return domain.Result{}, err
	}

	if cmd.Mode == domain.ModeConfirm {
		if d.gate == nil {
			return domain.Result{}, &domain.ValidationError{Field: "mode", Reason: "confirm mode requires a confirmation gate"}
		}
		background := cmd
		background.Mode = domain.ModePlain
		return d.gate.Confirm(ctx, cmd, func(ctx context.Context) (domain.Result, error) {
			return d.execute(ctx, background)
		})
	}
	return d.execute(ctx, cmd)
}

func (d *Dispatcher) execute(ctx context.Context, cmd domain.Command) (domain.Result, error) {
	start := time.Now()

	factory, ok := d.factories[cmd.Transport]
	if !ok {
		return domain.Result{}, &domain.ValidationError{Field: "transport", Reason: "no factory for " + string(cmd.Transport)}
	}
	dialer, err := factory(cmd)
	if err != nil {
		return domain.Result{}, err
	}

	conn, err := dialer.Dial(ctx)
	if err != nil {
		observability.RecordDispatch(string(cmd.Transport), string(cmd.Mode), observability.OutcomeOpenFailed, time.Since(start))
		return domain.Result{}, &domain.OpenError{Transport: cmd.Transport, Err: err}
	}
	defer conn.Close()

	var buf bytes.Buffer
	var writeErr error
	op := func(opCtx context.Context) error {
		if sendErr := d.send(cmd, conn); sendErr != nil {
			// Fold the failure into the result; partial output produced
			// before the dead channel is still meaningful.
			writeErr = sendErr
			buf.Write(conn.Drain())
			return nil
		}
		return d.collect(opCtx, conn, &buf)
	}

	completed, opErr := d.clock.Run(ctx, cmd.Timeout, op, func() { _ = conn.Close() })
	if opErr != nil && (errors.Is(opErr, context.DeadlineExceeded) || errors.Is(opErr, context.Canceled)) {
		completed = false
		opErr = nil
	}
	_ = conn.Close()
	if opErr != nil {
		return domain.Result{}, opErr
	}

	raw := buf.Bytes()
	res := domain.Result{
		Raw:       raw,
		Text:      codec.Decode(raw),
		Completed: completed && writeErr == nil,
		Err:       writeErr,
	}

	outcome := observability.OutcomeCompleted
	switch {
	case writeErr != nil:
		outcome = observability.OutcomeWriteError
	case !completed:
		outcome = observability.OutcomeTimeout
	}
	observability.RecordDispatch(string(cmd.Transport), string(cmd.Mode), outcome, time.Since(start))
	d.log.Debug("dispatch finished",
		"transport", cmd.Transport,
		"mode", cmd.Mode,
		"outcome", outcome,
		"bytes", len(raw),
		"elapsed", time.Since(start),
	)
	return res, nil
}

// send pushes the payload to the backend. Process commands consumed their
// argv at dial time, so there is nothing left to write. AT mode performs the
// one-time line-mode arming write first; it shares the timeout budget
// because send runs inside the controller's operation.
func (d *Dispatcher) send(cmd domain.Command, conn transport.Conn) error {
	if cmd.Transport == domain.TransportProcess {
		return nil
	}
	if cmd.Mode == domain.ModeAT {
		if err := conn.Send(d.arm); err != nil {
			return &domain.WriteError{Err: err}
		}
	}
	payload := append(cmd.Payload(), d.terminator...)
	if err := conn.Send(payload); err != nil {
		return &domain.WriteError{Err: err}
	}
	return nil
}

// collect drains the conn until natural completion, quiescence or context
// expiry. On expiry it waits out one bounded flush cycle so output the kill
// could not atomically flush is still captured.
func (d *Dispatcher) collect(ctx context.Context, conn transport.Conn, buf *bytes.Buffer) error {
	ticker := time.NewTicker(d.poll)
	defer ticker.Stop()

	lastActivity := time.Now()
	for {
		select {
		case <-ctx.Done():
			select {
			case <-conn.Done():
			case <-time.After(d.drainGrace):
			}
			buf.Write(conn.Drain())
			return ctx.Err()
		case <-conn.Done():
			buf.Write(conn.Drain())
			return nil
		case <-ticker.C:
			if p := conn.Drain(); len(p) > 0 {
				buf.Write(p)
				lastActivity = time.Now()
			} else if buf.Len() > 0 && time.Since(lastActivity) >= d.quiet {
				return nil
			}
		}
	}
}
