// Package deadline enforces hard time bounds on transport operations.
//
// The controller does not rely on cooperative cancellation: when the timer
// fires it invokes the caller's terminate hook (kill the process, close the
// socket, abandon the serial read) and then waits for the operation only up
// to a short grace window, so a wedged teardown can never hang the caller a
// second time.
package deadline

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/relay/internal/logging"
)

// DefaultGrace bounds how long Run waits for an operation to unwind after
// forced termination.
const DefaultGrace = 500 * time.Millisecond

// Controller races operations against their deadline.
type Controller struct {
	grace time.Duration
	log   *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithGrace sets the post-termination wait bound.
func WithGrace(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.grace = d
		}
	}
}

// WithLogger sets a structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a Controller.
func New(opts ...Option) *Controller {
	c := &Controller{
		grace: DefaultGrace,
		log:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes op on its own goroutine and bounds it by timeout.
//
// When op returns first, Run reports completed=true and op's error.
// When the timer (or the parent context) fires first, Run calls terminate,
// waits at most the grace window for op to return, and reports
// completed=false. Whatever op accumulated up to that point is the caller's
// to collect; expiry itself is not an error.
func (c *Controller) Run(ctx context.Context, timeout time.Duration, op func(ctx context.Context) error, terminate func()) (completed bool, err error) {
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(opCtx)
	}()

	select {
	case opErr := <-done:
		return true, opErr
	case <-opCtx.Done():
	}

	c.log.Debug("deadline expired, forcing teardown", "timeout", timeout)
	if terminate != nil {
		terminate()
	}

	select {
	case <-done:
	case <-time.After(c.grace):
		c.log.Warn("operation did not unwind within grace window", "grace", c.grace)
	}
	return false, nil
}
