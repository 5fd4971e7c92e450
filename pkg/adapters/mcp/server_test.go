package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/relay/pkg/domain"
)

type fakeDispatcher struct {
	cmds []domain.Command
	res  domain.Result
	err  error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, cmd domain.Command) (domain.Result, error) {
	f.cmds = append(f.cmds, cmd)
	return f.res, f.err
}

func TestHandleDispatch(t *testing.T) {
	t.Run("builds command from tool arguments", func(t *testing.T) {
		disp := &fakeDispatcher{res: domain.Result{Text: "ok", Completed: true}}
		s := NewServer(disp, "test")

		resp, err := s.handleDispatch(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
			"argv":    `["uname", "-a"]`,
			"timeout": "2s",
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Text)
		assert.True(t, resp.Completed)

		require.Len(t, disp.cmds, 1)
		assert.Equal(t, []string{"uname", "-a"}, disp.cmds[0].Argv)
		assert.Equal(t, domain.TransportProcess, disp.cmds[0].Transport)
	})

	t.Run("verdict surfaces when decided", func(t *testing.T) {
		disp := &fakeDispatcher{res: domain.Result{Completed: true, Verdict: domain.VerdictRejected}}
		s := NewServer(disp, "test")

		resp, err := s.handleDispatch(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
			"argv": `["reboot"]`,
		})
		require.NoError(t, err)
		assert.Equal(t, "rejected", resp.Verdict)
	})

	t.Run("confirm mode rejected", func(t *testing.T) {
		disp := &fakeDispatcher{}
		s := NewServer(disp, "test")

		_, err := s.handleDispatch(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
			"argv": `["reboot"]`,
			"mode": "confirm",
		})
		assert.Error(t, err)
		assert.Empty(t, disp.cmds)
	})

	t.Run("malformed argv rejected", func(t *testing.T) {
		s := NewServer(&fakeDispatcher{}, "test")

		_, err := s.handleDispatch(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
			"argv": "uname -a",
		})
		assert.Error(t, err)
	})

	t.Run("invalid transport rejected before dispatch", func(t *testing.T) {
		disp := &fakeDispatcher{}
		s := NewServer(disp, "test")

		_, err := s.handleDispatch(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
			"argv":      `["x"]`,
			"transport": "pigeon",
		})
		assert.Error(t, err)
		assert.Empty(t, disp.cmds)
	})
}
