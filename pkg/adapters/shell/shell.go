// Package shell implements the remote interactive session backend over SSH.
//
// An interactive shell is not ready the instant the session opens: the login
// banner and first prompt arrive asynchronously. The settle policy is a
// configuration parameter, not a hidden constant; Dial sleeps for it and
// discards everything received up to that point so captured output belongs
// to the dispatched command, not to the login sequence.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/aretw0/relay/pkg/transport"
)

// DefaultSettle is applied when the config does not name a settle delay.
const DefaultSettle = 500 * time.Millisecond

// Config carries the session connection parameters. Credentials live only as
// long as the dialer and conn built from them.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string

	// KeyPEM holds an optional private key (PEM). When set it is tried
	// before the password.
	KeyPEM []byte

	// Settle is how long Dial waits after opening the shell before the
	// prompt is considered ready.
	Settle time.Duration

	// HostKeyCallback overrides host key verification. Bench setups talk to
	// throwaway lab hosts, so the default accepts any key; production
	// callers should supply knownhosts verification here.
	HostKeyCallback ssh.HostKeyCallback

	// DialTimeout bounds the TCP/SSH handshake. Zero means 10s.
	DialTimeout time.Duration
}

// Validate checks the parameters a session cannot be opened without.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("shell: host is required")
	}
	if c.User == "" {
		return fmt.Errorf("shell: user is required")
	}
	if c.Password == "" && len(c.KeyPEM) == 0 {
		return fmt.Errorf("shell: either password or key is required")
	}
	return nil
}

// Dialer opens one interactive session per Dial.
type Dialer struct {
	cfg Config
}

// New builds a session Dialer after validating the config.
func New(cfg Config) (*Dialer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Settle == 0 {
		cfg.Settle = DefaultSettle
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.HostKeyCallback == nil {
		cfg.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	}
	return &Dialer{cfg: cfg}, nil
}

// Dial connects, opens an interactive shell, waits for the settle window and
// drops the login banner.
func (d *Dialer) Dial(ctx context.Context) (transport.Conn, error) {
	cfg := d.cfg

	var auth []ssh.AuthMethod
	if len(cfg.KeyPEM) > 0 {
		signer, err := ssh.ParsePrivateKey(cfg.KeyPEM)
		if err != nil {
			return nil, fmt.Errorf("shell: parse key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if cfg.Password != "" {
		auth = append(auth, ssh.Password(cfg.Password))
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	netConn, err := (&net.Dialer{Timeout: cfg.DialTimeout}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("shell: dial %s: %w", addr, err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: cfg.HostKeyCallback,
		Timeout:         cfg.DialTimeout,
	})
	if err != nil {
		_ = netConn.Close()
		return nil, fmt.Errorf("shell: handshake %s: %w", addr, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	session, err := client.NewSession()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("shell: open session: %w", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		_ = session.Close()
		_ = client.Close()
		return nil, fmt.Errorf("shell: stdin pipe: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		_ = session.Close()
		_ = client.Close()
		return nil, fmt.Errorf("shell: stdout pipe: %w", err)
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		_ = session.Close()
		_ = client.Close()
		return nil, fmt.Errorf("shell: stderr pipe: %w", err)
	}

	if err := session.RequestPty("vt100", 40, 120, ssh.TerminalModes{
		ssh.ECHO: 0,
	}); err != nil {
		_ = session.Close()
		_ = client.Close()
		return nil, fmt.Errorf("shell: request pty: %w", err)
	}
	if err := session.Shell(); err != nil {
		_ = session.Close()
		_ = client.Close()
		return nil, fmt.Errorf("shell: start shell: %w", err)
	}

	c := &Conn{
		client:  client,
		session: session,
		stdin:   stdin,
		done:    make(chan struct{}),
	}
	var pumps sync.WaitGroup
	pumps.Add(2)
	go c.pump(&pumps, stdout)
	go c.pump(&pumps, stderr)
	go func() {
		pumps.Wait()
		_ = session.Wait()
		close(c.done)
	}()

	// Let the remote side settle, then discard the banner and prompt.
	select {
	case <-time.After(cfg.Settle):
	case <-ctx.Done():
		_ = c.Close()
		return nil, ctx.Err()
	}
	c.Drain()

	return c, nil
}

// Conn is one open interactive session.
type Conn struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser

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

// Send writes payload bytes into the remote shell.
func (c *Conn) Send(p []byte) error {
	if _, err := c.stdin.Write(p); err != nil {
		return fmt.Errorf("shell: write: %w", err)
	}
	return nil
}

// Drain returns and clears whatever the session produced so far.
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

// Done is closed when the remote shell ends the session.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Close tears down the session and the underlying connection. Idempotent.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		_ = c.stdin.Close()
		_ = c.session.Close()
		_ = c.client.Close()
	})
	return nil
}

// LoadKey is a convenience for callers constructing a Config from a key file.
func LoadKey(path string) ([]byte, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shell: read key %s: %w", path, err)
	}
	return pem, nil
}
