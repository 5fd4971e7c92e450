// Package process implements the subprocess execution backend.
//
// The command's argv becomes the subprocess argv directly; nothing is ever
// routed through a shell, so payload tokens cannot be reinterpreted as shell
// syntax. Stdout and stderr are pumped into an internal buffer the moment
// they are produced, which is what makes the non-blocking Drain contract and
// the post-kill grace-drain possible: killing the process does not discard
// bytes the pumps already captured.
package process

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/aretw0/relay/pkg/transport"
)

// Config carries subprocess connection parameters beyond the argv itself.
type Config struct {
	// Dir is the working directory. Empty means the caller's.
	Dir string
	// Env holds additional KEY=VALUE pairs appended to the inherited
	// environment.
	Env map[string]string
}

// Dialer starts one subprocess per Dial.
type Dialer struct {
	argv []string
	cfg  Config
}

// New builds a process Dialer for the given argv.
func New(argv []string, cfg Config) (*Dialer, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("process: empty argv")
	}
	return &Dialer{argv: argv, cfg: cfg}, nil
}

// Dial starts the subprocess and begins pumping its output.
func (d *Dialer) Dial(ctx context.Context) (transport.Conn, error) {
	cmd := exec.Command(d.argv[0], d.argv[1:]...)
	cmd.Dir = d.cfg.Dir
	cmd.Env = cmd.Environ()
	for k, v := range d.cfg.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("process: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("process: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("process: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("process: start %q: %w", d.argv[0], err)
	}

	c := &Conn{
		cmd:   cmd,
		stdin: stdin,
		done:  make(chan struct{}),
	}
	var pumps sync.WaitGroup
	pumps.Add(2)
	go c.pump(&pumps, stdout)
	go c.pump(&pumps, stderr)
	go func() {
		pumps.Wait()
		// Reap the process; on a kill the error is expected and irrelevant,
		// the captured bytes are what matters.
		_ = cmd.Wait()
		close(c.done)
	}()
	return c, nil
}

// Conn is one running subprocess.
type Conn struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser

	mu  sync.Mutex
	buf bytes.Buffer

	done      chan struct{}
	closeOnce sync.Once
}

var _ transport.Conn = (*Conn)(nil)

func (c *Conn) pump(wg *sync.WaitGroup, r io.Reader) {
	defer wg.Done()
	chunk := make([]byte, 4096)
	for {
		n, err := r.Read(chunk)
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

// Send writes to the subprocess stdin.
func (c *Conn) Send(p []byte) error {
	if _, err := c.stdin.Write(p); err != nil {
		return fmt.Errorf("process: write stdin: %w", err)
	}
	return nil
}

// Drain returns and clears whatever output the pumps have buffered.
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

// Done is closed once the process exited and both pumps drained their pipes.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Close kills the subprocess. Safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		_ = c.stdin.Close()
		if c.cmd.Process != nil {
			_ = c.cmd.Process.Kill()
		}
	})
	return nil
}
