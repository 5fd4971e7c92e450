package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/relay/internal/config"
	"github.com/aretw0/relay/pkg/domain"
)

// DispatchResponse is the structured result returned to MCP clients.
type DispatchResponse struct {
	Text      string `json:"text" jsonschema_description:"Decoded command output"`
	Completed bool   `json:"completed" jsonschema_description:"True if the command finished before its deadline"`
	Verdict   string `json:"verdict,omitempty" jsonschema_description:"Operator verdict for confirmed commands"`
	Error     string `json:"error,omitempty" jsonschema_description:"Transport-level error folded into the result"`
}

// Dispatcher defines the slice of the relay the MCP server needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd domain.Command) (domain.Result, error)
}

// Server exposes command dispatch as an MCP tool.
type Server struct {
	dispatcher Dispatcher
	mcpServer  *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(dispatcher Dispatcher, version string) *Server {
	s := &Server{
		dispatcher: dispatcher,
		mcpServer:  server.NewMCPServer("relay-mcp", strings.TrimSpace(version)),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		fmt.Println("\nShutdown signal received, shutting down server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: dispatch_command
	dispatchTool := mcp.NewTool("dispatch_command",
		mcp.WithDescription("Execute a command over a transport (process, session, serial) and return its captured output."),
		mcp.WithString("argv", mcp.Required(), mcp.Description("JSON array of command tokens, e.g. [\"uname\", \"-a\"]")),
		mcp.WithString("transport", mcp.Description("Transport kind: process (default), session, serial")),
		mcp.WithString("mode", mcp.Description("Dispatch mode: plain (default), at, confirm")),
		mcp.WithString("timeout", mcp.Description("Deadline as a Go duration string, e.g. 2s")),
		mcp.WithString("params", mcp.Description("JSON object of transport parameters (host, device, ...)")),
		mcp.WithOutputSchema[DispatchResponse](),
	)
	s.mcpServer.AddTool(dispatchTool, mcp.NewStructuredToolHandler(s.handleDispatch))

	// TOOL: list_transports
	s.mcpServer.AddTool(mcp.NewTool("list_transports",
		mcp.WithDescription("List the transport kinds this relay can dispatch over."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		kinds := []string{
			string(domain.TransportProcess),
			string(domain.TransportSession),
			string(domain.TransportSerial),
		}
		jsonBytes, _ := json.Marshal(kinds)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleDispatch(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DispatchResponse, error) {
	spec := config.CommandSpec{
		Transport: string(domain.TransportProcess),
	}

	argvStr, _ := args["argv"].(string)
	if err := json.Unmarshal([]byte(argvStr), &spec.Argv); err != nil {
		return DispatchResponse{}, fmt.Errorf("argv must be a JSON array of strings: %w", err)
	}
	if t, ok := args["transport"].(string); ok && t != "" {
		spec.Transport = t
	}
	if m, ok := args["mode"].(string); ok {
		spec.Mode = m
	}
	if d, ok := args["timeout"].(string); ok {
		spec.Timeout = d
	}
	if p, ok := args["params"].(string); ok && p != "" {
		if err := json.Unmarshal([]byte(p), &spec.Params); err != nil {
			return DispatchResponse{}, fmt.Errorf("params must be a JSON object: %w", err)
		}
	}

	cmd, err := config.Build(spec)
	if err != nil {
		return DispatchResponse{}, fmt.Errorf("invalid command: %w", err)
	}
	// No operator is reachable over stdio JSON-RPC.
	if cmd.Mode == domain.ModeConfirm {
		return DispatchResponse{}, fmt.Errorf("confirm mode is not available over MCP; use the console command")
	}

	res, err := s.dispatcher.Dispatch(ctx, cmd)
	if err != nil {
		return DispatchResponse{}, fmt.Errorf("dispatch failed: %w", err)
	}

	resp := DispatchResponse{
		Text:      res.Text,
		Completed: res.Completed,
	}
	if res.Verdict.Decided() {
		resp.Verdict = res.Verdict.String()
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	return resp, nil
}
