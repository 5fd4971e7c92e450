package domain

import (
	"errors"
	"fmt"
)

// ErrConfirmationAbandoned is returned when the presenting context closed
// without an operator decision. Callers must treat it as an error unless
// they explicitly tolerate unresolved confirmations.
var ErrConfirmationAbandoned = errors.New("confirmation abandoned")

// ValidationError marks a malformed command descriptor. Commands that fail
// validation are never dispatched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid command: %s: %s", e.Field, e.Reason)
}

// OpenError wraps a backend's failure to establish a channel. It propagates
// immediately; retry policy belongs to the caller.
type OpenError struct {
	Transport Transport
	Err       error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s transport: %v", e.Transport, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// WriteError wraps a send failure on an already-open channel. Dispatchers
// fold it into the Result instead of raising it, so partial output survives.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return fmt.Sprintf("transport write: %v", e.Err) }

func (e *WriteError) Unwrap() error { return e.Err }
