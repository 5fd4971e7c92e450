package domain

import (
	"time"
)

// Transport identifies the execution backend a command is dispatched to.
type Transport string

const (
	// TransportProcess runs the command as a local subprocess.
	TransportProcess Transport = "process"
	// TransportSession writes the command into a remote interactive shell.
	TransportSession Transport = "session"
	// TransportSerial writes the command onto a local serial link.
	TransportSerial Transport = "serial"
)

// Mode selects how a command's completion is established.
type Mode string

const (
	// ModePlain collects output until end-of-stream, quiescence or deadline.
	ModePlain Mode = "plain"
	// ModeAT arms the peer for line-oriented interpretation before sending.
	// The arming write shares the command's timeout budget.
	ModeAT Mode = "at"
	// ModeConfirm runs the command in the background and gates the result on
	// an operator accept/reject decision.
	ModeConfirm Mode = "confirm"
)

// DefaultProcessTimeout applies when a process-transport command omits an
// explicit timeout.
const DefaultProcessTimeout = 1 * time.Second

// Command describes one dispatchable command. It is a value: construct it,
// hand it to a dispatcher, never mutate it afterwards.
//
// Argv is always an ordered token sequence. It is never joined into a single
// shell-interpreted string; backends that need bytes on the wire get the
// tokens joined with single spaces via Payload.
type Command struct {
	Argv      []string
	Transport Transport
	Mode      Mode

	// Timeout bounds the command's execution. Required and positive; a
	// missing timeout is only defaulted for process commands.
	Timeout time.Duration

	// ReferencePath points the operator at a reference artifact for confirm
	// mode. Passed through untouched; never validated or rendered here.
	ReferencePath string

	// Params carries backend connection parameters (process env/cwd,
	// session host and credentials, serial device and baud). The adapter
	// for Transport owns its concrete type.
	Params any
}

// Normalized returns a copy with defaults applied. Process commands get
// DefaultProcessTimeout when none is set; every other transport must carry
// an explicit timeout.
func (c Command) Normalized() Command {
	if c.Timeout == 0 && c.Transport == TransportProcess {
		c.Timeout = DefaultProcessTimeout
	}
	if c.Mode == "" {
		c.Mode = ModePlain
	}
	return c
}

// Validate checks the descriptor before dispatch. A command that fails
// validation is never dispatched and no transport is opened for it.
func (c Command) Validate() error {
	if len(c.Argv) == 0 {
		return &ValidationError{Field: "argv", Reason: "empty payload"}
	}
	switch c.Transport {
	case TransportProcess, TransportSession, TransportSerial:
	default:
		return &ValidationError{Field: "transport", Reason: "unknown transport " + string(c.Transport)}
	}
	switch c.Mode {
	case ModePlain, ModeAT, ModeConfirm:
	default:
		return &ValidationError{Field: "mode", Reason: "unknown mode " + string(c.Mode)}
	}
	if c.Timeout <= 0 {
		return &ValidationError{Field: "timeout", Reason: "must be positive"}
	}
	return nil
}

// Payload renders the argv tokens as bytes for line-oriented backends.
func (c Command) Payload() []byte {
	if len(c.Argv) == 0 {
		return nil
	}
	n := len(c.Argv) - 1
	for _, a := range c.Argv {
		n += len(a)
	}
	out := make([]byte, 0, n)
	for i, a := range c.Argv {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, a...)
	}
	return out
}
