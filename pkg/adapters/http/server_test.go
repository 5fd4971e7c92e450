package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/relay/pkg/confirm"
)

func TestConsole_PendingEmpty(t *testing.T) {
	c := NewConsole()
	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/confirmations/pending")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestConsole_AcceptFlow(t *testing.T) {
	c := NewConsole()
	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	type presentOut struct {
		accepted bool
		err      error
	}
	done := make(chan presentOut, 1)
	go func() {
		accepted, err := c.Present(context.Background(), confirm.Prompt{
			ID:            "req-9",
			Text:          "VOLT 3.3",
			ReferencePath: "ref/panel.png",
		})
		done <- presentOut{accepted, err}
	}()

	// Poll until the prompt is published.
	var view PromptView
	require.Eventually(t, func() bool {
		resp, err := http.Get(srv.URL + "/confirmations/pending")
		if err != nil || resp.StatusCode != http.StatusOK {
			return false
		}
		defer resp.Body.Close()
		return json.NewDecoder(resp.Body).Decode(&view) == nil
	}, 2*time.Second, 20*time.Millisecond)

	assert.Equal(t, "req-9", view.ID)
	assert.Equal(t, "VOLT 3.3", view.Text)
	assert.Equal(t, "ref/panel.png", view.ReferencePath)

	resp, err := http.Post(srv.URL+"/confirmations/req-9/verdict", "application/json",
		strings.NewReader(`{"accepted":true}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	out := <-done
	require.NoError(t, out.err)
	assert.True(t, out.accepted)
}

func TestConsole_VerdictForUnknownRequest(t *testing.T) {
	c := NewConsole()
	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/confirmations/nope/verdict", "application/json",
		strings.NewReader(`{"accepted":true}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestConsole_ContextClosureAbandons(t *testing.T) {
	c := NewConsole()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := c.Present(ctx, confirm.Prompt{ID: "req-1", Text: "X"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConsole_HealthAndMetrics(t *testing.T) {
	c := NewConsole()
	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
