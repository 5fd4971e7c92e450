package domain

// Verdict is the operator's decision for a confirm-mode command.
// The zero value means no decision was recorded (abandoned or not asked);
// it is distinct from an explicit rejection.
type Verdict uint8

const (
	VerdictNone Verdict = iota
	VerdictAccepted
	VerdictRejected
)

// Decided reports whether an operator actually answered.
func (v Verdict) Decided() bool { return v != VerdictNone }

func (v Verdict) String() string {
	switch v {
	case VerdictAccepted:
		return "accepted"
	case VerdictRejected:
		return "rejected"
	default:
		return "none"
	}
}

// Result is the outcome of one dispatch. Produced exactly once per command
// and immutable afterwards.
type Result struct {
	// Raw holds every byte captured before completion or forced teardown,
	// including the grace-drain after a kill.
	Raw []byte

	// Text is the lossy decode of Raw. Malformed byte sequences are dropped,
	// never surfaced as an error.
	Text string

	// Completed is true when the transport signalled natural completion
	// (end-of-stream or quiescence) before the deadline. A deadline expiry
	// is reported here, not as an error.
	Completed bool

	// Verdict carries the operator decision for confirm-mode commands.
	// Independent of the command's own output: a command can complete with
	// output and still be rejected.
	Verdict Verdict

	// Err records a non-fatal failure captured mid-dispatch (a write that
	// failed after the channel opened). The partial output in Raw/Text is
	// still meaningful when Err is set.
	Err error
}
