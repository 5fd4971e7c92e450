// Package serial implements the local serial link backend.
//
// A serial link has no notion of end-of-stream, so the conn never signals
// natural completion; the dispatcher's quiescence window ends collection.
// Reads run with a short poll timeout and push whatever arrived into the
// buffer, which keeps Drain non-blocking and lets Close abandon a read that
// is still pending.
package serial

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/aretw0/relay/pkg/transport"
)

// DefaultPoll is the read-cycle bound when the config names none.
const DefaultPoll = 50 * time.Millisecond

// Config carries the link parameters.
type Config struct {
	// Device is the port path, e.g. /dev/ttyUSB0 or COM3.
	Device string
	// Baud is the line rate. Required; there is no safe default across
	// instruments.
	Baud int
	// Poll bounds each read cycle so teardown is never stuck behind a
	// blocking read.
	Poll time.Duration
}

// Validate checks the parameters the link cannot be opened without.
func (c Config) Validate() error {
	if c.Device == "" {
		return fmt.Errorf("serial: device is required")
	}
	if c.Baud <= 0 {
		return fmt.Errorf("serial: baud must be positive")
	}
	return nil
}

// Dialer opens one serial link per Dial.
type Dialer struct {
	cfg Config
}

// New builds a serial Dialer after validating the config.
func New(cfg Config) (*Dialer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Poll == 0 {
		cfg.Poll = DefaultPoll
	}
	return &Dialer{cfg: cfg}, nil
}

// Dial opens the device and starts the read loop.
func (d *Dialer) Dial(ctx context.Context) (transport.Conn, error) {
	port, err := serial.Open(d.cfg.Device, &serial.Mode{BaudRate: d.cfg.Baud})
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", d.cfg.Device, err)
	}
	if err := port.SetReadTimeout(d.cfg.Poll); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("serial: set read timeout: %w", err)
	}

	c := &Conn{
		port:   port,
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Conn is one open serial link.
type Conn struct {
	port serial.Port

	mu  sync.Mutex
	buf bytes.Buffer

	done      chan struct{} // never closed: a link has no completion signal
	closed    chan struct{}
	closeOnce sync.Once
}

var _ transport.Conn = (*Conn)(nil)

func (c *Conn) readLoop() {
	chunk := make([]byte, 1024)
	for {
		select {
		case <-c.closed:
			return
		default:
		}
		// Bounded by the poll timeout: n==0 with nil err means nothing
		// arrived this cycle.
		n, err := c.port.Read(chunk)
		if n > 0 {
			c.mu.Lock()
			c.buf.Write(chunk[:n])
			c.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// Send writes payload bytes onto the link.
func (c *Conn) Send(p []byte) error {
	if _, err := c.port.Write(p); err != nil {
		return fmt.Errorf("serial: write: %w", err)
	}
	return nil
}

// Drain returns and clears whatever the link produced so far.
func (c *Conn) Drain() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.buf.Len() == 0 {
		return nil
	}
	out := make([]byte, c.buf.Len())
	copy(out, c.buf.Bytes())
	c.buf.Reset()
	return out
}

// Done never closes: a serial link has no natural completion.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Close abandons the pending read and closes the device. Idempotent.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.port.Close()
	})
	return nil
}
