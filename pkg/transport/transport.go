// Package transport defines the uniform contract every execution backend
// satisfies: open a channel, push bytes in, drain whatever came back without
// blocking, and tear the channel down exactly once.
//
// The contract deliberately forbids implicit blocking reads. A backend either
// signals natural completion through Done or hands back buffered bytes
// through Drain; any waiting is the dispatcher's job, bounded by its
// deadline controller. This is what lets a subprocess, a remote shell
// session and a serial link be driven by the same loop despite very
// different native blocking behaviors.
package transport

import "context"

// Dialer opens one channel to a backend. Implementations carry their own
// connection parameters; a Dialer is built per command and not reused.
type Dialer interface {
	// Dial establishes the channel. Failures here are connection errors;
	// the dispatcher wraps them and propagates without retrying.
	Dial(ctx context.Context) (Conn, error)
}

// Conn is one open channel. It is owned exclusively by a single dispatch;
// never shared across concurrent commands.
type Conn interface {
	// Send writes payload bytes to the backend. A failure after the channel
	// opened is a write error; the dispatcher folds it into the result.
	Send(p []byte) error

	// Drain returns whatever bytes are currently buffered without blocking.
	// It never fails; an empty slice means nothing was pending.
	Drain() []byte

	// Done is closed when the backend signals natural completion
	// (process exit, session end-of-stream). Backends with no completion
	// concept (a serial link) never close it.
	Done() <-chan struct{}

	// Close forcibly tears the channel down: kill the process, close the
	// socket, abandon the pending serial read. Idempotent; a second call is
	// a no-op, never an error.
	Close() error
}
