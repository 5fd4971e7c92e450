// Package confirm correlates a background command with an asynchronous
// operator accept/reject decision.
//
// The operator wait is deliberately unbounded: a human decision gets as much
// wall-clock time as it needs. Only the background command itself runs under
// the dispatcher's deadline controller. The presenter runs on the calling
// execution path and holds no transport resources, so a slow (or absent)
// operator can never block or leak the command's channel.
package confirm

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/aretw0/relay/internal/logging"
	"github.com/aretw0/relay/internal/observability"
	"github.com/aretw0/relay/pkg/dispatch"
	"github.com/aretw0/relay/pkg/domain"
)

// State tracks one request through its lifecycle.
type State uint8

const (
	StateStarted State = iota
	StateAwaitingOperator
	StateAccepted
	StateRejected
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateStarted:
		return "started"
	case StateAwaitingOperator:
		return "awaiting-operator"
	case StateAccepted:
		return "accepted"
	case StateRejected:
		return "rejected"
	case StateAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Prompt is what a presenter shows the operator.
type Prompt struct {
	// ID correlates the decision with the in-flight command.
	ID string
	// Text is the command line awaiting sign-off.
	Text string
	// ReferencePath points at a reference artifact. Passed through
	// untouched; rendering it is the presenter's collaborator's job.
	ReferencePath string
}

// Presenter blocks until the operator decides or the presenting context is
// closed. A closed context (or any error) abandons the request; it must
// never be reported as a rejection.
type Presenter interface {
	Present(ctx context.Context, p Prompt) (accepted bool, err error)
}

// Request is one pending confirmation. At most one request is outstanding
// per command; the gate creates it at dispatch and finalizes it exactly once.
type Request struct {
	ID    string
	Text  string
	state State
	mu    sync.Mutex
}

// State returns the request's current lifecycle state.
func (r *Request) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Request) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Gate implements dispatch.ConfirmGate.
type Gate struct {
	presenter Presenter
	log       *slog.Logger
}

var _ dispatch.ConfirmGate = (*Gate)(nil)

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets a structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(g *Gate) {
		if log != nil {
			g.log = log
		}
	}
}

// New creates a Gate presenting through the given presenter.
func New(presenter Presenter, opts ...Option) *Gate {
	g := &Gate{presenter: presenter, log: logging.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Confirm runs the command's background leg detached from the operator wait
// and resolves the result only once both have finished.
//
// The verdict is independent of the command's own output: a command can
// complete with output and still be rejected. When the presenting context
// closes without a decision the verdict stays absent and
// domain.ErrConfirmationAbandoned is returned alongside the result.
func (g *Gate) Confirm(ctx context.Context, cmd domain.Command, run dispatch.RunFunc) (domain.Result, error) {
	req := &Request{
		ID:    uuid.NewString(),
		Text:  string(cmd.Payload()),
		state: StateStarted,
	}
	g.log.Debug("confirmation started", "request", req.ID, "command", req.Text)

	type outcome struct {
		res domain.Result
		err error
	}
	resCh := make(chan outcome, 1)
	go func() {
		res, err := run(ctx)
		resCh <- outcome{res: res, err: err}
	}()

	req.setState(StateAwaitingOperator)
	accepted, perr := g.presenter.Present(ctx, Prompt{
		ID:            req.ID,
		Text:          req.Text,
		ReferencePath: cmd.ReferencePath,
	})

	// The background leg is bounded by its own deadline, so this wait is
	// short once the operator has answered.
	out := <-resCh
	if out.err != nil {
		req.setState(StateAbandoned)
		return domain.Result{}, out.err
	}
	res := out.res

	if perr != nil {
		req.setState(StateAbandoned)
		observability.RecordVerdict(domain.VerdictNone.String())
		g.log.Warn("confirmation abandoned", "request", req.ID, "err", perr)
		return res, domain.ErrConfirmationAbandoned
	}

	if accepted {
		req.setState(StateAccepted)
		res.Verdict = domain.VerdictAccepted
	} else {
		req.setState(StateRejected)
		res.Verdict = domain.VerdictRejected
	}
	observability.RecordVerdict(res.Verdict.String())
	g.log.Info("confirmation resolved", "request", req.ID, "verdict", res.Verdict)
	return res, nil
}
