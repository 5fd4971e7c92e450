package confirm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/relay/pkg/domain"
)

type scriptedPresenter struct {
	accepted bool
	err      error
	prompts  []Prompt
}

func (p *scriptedPresenter) Present(ctx context.Context, prompt Prompt) (bool, error) {
	p.prompts = append(p.prompts, prompt)
	return p.accepted, p.err
}

func confirmCommand() domain.Command {
	return domain.Command{
		Argv:          []string{"echo", "measured 3.30V"},
		Transport:     domain.TransportProcess,
		Mode:          domain.ModeConfirm,
		Timeout:       time.Second,
		ReferencePath: "ref/panel-layout.png",
	}
}

func backgroundRun(res domain.Result, err error) func(ctx context.Context) (domain.Result, error) {
	return func(ctx context.Context) (domain.Result, error) { return res, err }
}

func TestGate_Accepted(t *testing.T) {
	p := &scriptedPresenter{accepted: true}
	g := New(p)

	res, err := g.Confirm(context.Background(), confirmCommand(),
		backgroundRun(domain.Result{Text: "measured 3.30V", Completed: true}, nil))

	require.NoError(t, err)
	assert.Equal(t, domain.VerdictAccepted, res.Verdict)
	assert.True(t, res.Completed)

	require.Len(t, p.prompts, 1)
	assert.NotEmpty(t, p.prompts[0].ID)
	assert.Equal(t, "echo measured 3.30V", p.prompts[0].Text)
	assert.Equal(t, "ref/panel-layout.png", p.prompts[0].ReferencePath)
}

func TestGate_RejectionKeepsOutput(t *testing.T) {
	p := &scriptedPresenter{accepted: false}
	g := New(p)

	res, err := g.Confirm(context.Background(), confirmCommand(),
		backgroundRun(domain.Result{Text: "measured 3.30V", Completed: true}, nil))

	require.NoError(t, err)
	assert.Equal(t, domain.VerdictRejected, res.Verdict)
	assert.Equal(t, "measured 3.30V", res.Text, "the verdict must not erase the command's own output")
	assert.True(t, res.Completed)
}

func TestGate_AcceptedRegardlessOfOutput(t *testing.T) {
	p := &scriptedPresenter{accepted: true}
	g := New(p)

	res, err := g.Confirm(context.Background(), confirmCommand(),
		backgroundRun(domain.Result{Text: "", Completed: false}, nil))

	require.NoError(t, err)
	assert.Equal(t, domain.VerdictAccepted, res.Verdict)
	assert.False(t, res.Completed)
}

func TestGate_AbandonedLeavesVerdictAbsent(t *testing.T) {
	p := &scriptedPresenter{err: errors.New("stdin closed")}
	g := New(p)

	res, err := g.Confirm(context.Background(), confirmCommand(),
		backgroundRun(domain.Result{Text: "output survives"}, nil))

	require.ErrorIs(t, err, domain.ErrConfirmationAbandoned)
	assert.Equal(t, domain.VerdictNone, res.Verdict, "abandoned is absent, never false")
	assert.False(t, res.Verdict.Decided())
	assert.Equal(t, "output survives", res.Text)
}

func TestGate_BackgroundErrorWins(t *testing.T) {
	p := &scriptedPresenter{accepted: true}
	g := New(p)
	boom := errors.New("open failed")

	_, err := g.Confirm(context.Background(), confirmCommand(),
		backgroundRun(domain.Result{}, boom))

	assert.ErrorIs(t, err, boom)
}

func TestGate_OperatorWaitDoesNotBlockCommand(t *testing.T) {
	// The background leg finishes while the presenter is still waiting;
	// the command result must be ready the moment the operator answers.
	ran := make(chan struct{})
	slow := &slowPresenter{decided: make(chan bool, 1), ran: ran}
	g := New(slow)

	go func() {
		// Decide only after observing the background leg completed.
		<-ran
		slow.decided <- true
	}()

	res, err := g.Confirm(context.Background(), confirmCommand(),
		func(ctx context.Context) (domain.Result, error) {
			defer close(ran)
			return domain.Result{Text: "done", Completed: true}, nil
		})

	require.NoError(t, err)
	assert.Equal(t, domain.VerdictAccepted, res.Verdict)
	assert.Equal(t, "done", res.Text)
}

type slowPresenter struct {
	decided chan bool
	ran     chan struct{}
}

func (p *slowPresenter) Present(ctx context.Context, prompt Prompt) (bool, error) {
	select {
	case v := <-p.decided:
		return v, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "started", StateStarted.String())
	assert.Equal(t, "awaiting-operator", StateAwaitingOperator.String())
	assert.Equal(t, "accepted", StateAccepted.String())
	assert.Equal(t, "rejected", StateRejected.String())
	assert.Equal(t, "abandoned", StateAbandoned.String())
}
