// Package http exposes the confirmation gate to operators over HTTP, for
// benches where nobody sits at the dispatching terminal. It also serves the
// process health and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/relay/internal/logging"
	"github.com/aretw0/relay/internal/observability"
	"github.com/aretw0/relay/pkg/confirm"
	"github.com/aretw0/relay/pkg/domain"
)

// PromptView is the wire form of a pending confirmation.
type PromptView struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	ReferencePath string `json:"reference_path,omitempty"`
}

// VerdictRequest is the operator's decision payload.
type VerdictRequest struct {
	Accepted bool `json:"accepted"`
}

type pending struct {
	prompt  confirm.Prompt
	decided chan bool
}

// Console is a confirm.Presenter backed by an HTTP surface. One confirmation
// is outstanding at a time, matching the gate's one-request-per-command
// contract.
type Console struct {
	log *slog.Logger

	mu      sync.Mutex
	current *pending
}

var _ confirm.Presenter = (*Console)(nil)

// Option configures a Console.
type Option func(*Console)

// WithLogger sets a structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Console) {
		if log != nil {
			c.log = log
		}
	}
}

// NewConsole creates the operator console.
func NewConsole(opts ...Option) *Console {
	c := &Console{log: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	observability.RegisterMetrics()
	return c
}

// Present publishes the prompt and blocks until an operator posts a verdict
// or the presenting context closes.
func (c *Console) Present(ctx context.Context, p confirm.Prompt) (bool, error) {
	entry := &pending{prompt: p, decided: make(chan bool, 1)}

	c.mu.Lock()
	c.current = entry
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		if c.current == entry {
			c.current = nil
		}
		c.mu.Unlock()
	}()

	c.log.Info("confirmation published", "request", p.ID)
	select {
	case v := <-entry.decided:
		return v, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Handler returns the console's HTTP routes.
func (c *Console) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/confirmations/pending", c.handlePending)
	r.Post("/confirmations/{id}/verdict", c.handleVerdict)

	return r
}

func (c *Console) handlePending(w http.ResponseWriter, _ *http.Request) {
	c.mu.Lock()
	entry := c.current
	c.mu.Unlock()

	if entry == nil {
		http.Error(w, "no pending confirmation", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(PromptView{
		ID:            entry.prompt.ID,
		Text:          entry.prompt.Text,
		ReferencePath: entry.prompt.ReferencePath,
	}); err != nil {
		c.log.Error("pending response encode failed", "error", err)
	}
}

func (c *Console) handleVerdict(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body VerdictRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		c.log.Warn("verdict: invalid request body", "error", err)
		return
	}

	c.mu.Lock()
	entry := c.current
	if entry != nil && entry.prompt.ID == id {
		c.current = nil
	}
	c.mu.Unlock()

	if entry == nil || entry.prompt.ID != id {
		http.Error(w, "no such pending confirmation", http.StatusNotFound)
		return
	}

	entry.decided <- body.Accepted
	verdict := domain.VerdictRejected
	if body.Accepted {
		verdict = domain.VerdictAccepted
	}
	c.log.Info("verdict received", "request", id, "verdict", verdict)
	w.WriteHeader(http.StatusNoContent)
}
