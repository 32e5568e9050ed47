// Package gateway is the HTTP surface of the gateway: the UI message stream
// chat endpoint (SSE and websocket), credential management, the MCP
// registry routes and the OpenAI-compatible completions passthrough.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"

	"genui-gateway/internal/adapter/auth"
	"genui-gateway/internal/adapter/mcp"
	"genui-gateway/internal/domain"
	"genui-gateway/internal/infra/config"
	"genui-gateway/internal/infra/middleware"
	"genui-gateway/internal/usecase/chat"
	"genui-gateway/internal/usecase/completion"
)

const shutdownTimeout = 5 * time.Second

// ChatService turns a chat request into a UI event stream.
type ChatService interface {
	Handle(ctx context.Context, req chat.Request) (iter.Seq[domain.StreamEvent], error)
}

// CompletionService forwards OpenAI-compatible completion requests.
type CompletionService interface {
	Complete(ctx context.Context, req completion.Request) (json.RawMessage, error)
	Stream(ctx context.Context, req completion.Request) (iter.Seq2[completion.Chunk, error], error)
}

// CredentialManager backs the /api/auth routes.
type CredentialManager interface {
	Status() auth.Status
	Save(token, profile string) error
	Delete() (bool, error)
}

// MCPRegistry backs the /mcp routes.
type MCPRegistry interface {
	List() []mcp.ServerInfo
	Get(name string) (mcp.ServerInfo, bool)
	SetEnabled(name string, enabled bool) bool
	EnabledTools() []domain.FunctionTool
}

// Deps holds the server collaborators. Completions, Credentials, MCP and
// MCPHandler are optional; their routes are not mounted when nil.
type Deps struct {
	Chat        ChatService
	Completions CompletionService
	Credentials CredentialManager
	MCP         MCPRegistry
	MCPHandler  http.Handler // catalog exposed over MCP at mcp.RPCPath
	Logger      *slog.Logger
	Version     string
}

// Server is the HTTP gateway.
type Server struct {
	deps      Deps
	cfg       config.ServerConfig
	metrics   *Metrics
	startTime time.Time
	httpSrv   *http.Server
	boundAddr string
}

// NewServer creates a gateway server.
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	return &Server{
		deps:      deps,
		cfg:       cfg,
		metrics:   &Metrics{},
		startTime: time.Now(),
	}
}

// Metrics returns the server's request counters.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Handler returns the full route tree wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/chat/ws", s.handleChatWS)

	if s.deps.Credentials != nil {
		mux.HandleFunc("GET /api/auth/status", s.handleAuthStatus)
		mux.HandleFunc("POST /api/auth/token", s.handleAuthSave)
		mux.HandleFunc("DELETE /api/auth/token", s.handleAuthDelete)
	}
	if s.deps.MCP != nil {
		mux.HandleFunc("GET /mcp/servers", s.handleMCPList)
		mux.HandleFunc("POST /mcp/servers/toggle", s.handleMCPToggle)
		mux.HandleFunc("GET /mcp/servers/{name}", s.handleMCPGet)
		mux.HandleFunc("GET /mcp/tools", s.handleMCPTools)
	}
	if s.deps.MCPHandler != nil {
		mux.Handle(mcp.RPCPath, s.deps.MCPHandler)
	}
	if s.deps.Completions != nil {
		mux.HandleFunc("POST /v1/chat/completions", s.handleCompletions)
	}

	var h http.Handler = mux
	h = middleware.SecurityHeaders(h)
	h = cors.New(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(h)
	h = middleware.RequestLogger(s.deps.Logger)(h)
	return h
}

// Start listens on the configured address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("gateway listen: %w", err)
	}
	s.boundAddr = listener.Addr().String()

	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.deps.Logger.Info("gateway started", "addr", s.boundAddr)

	go func() {
		<-ctx.Done()
		if err := s.Stop(context.Background()); err != nil {
			s.deps.Logger.Warn("gateway shutdown", "error", err)
		}
	}()

	if err := s.httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("gateway serve: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server, waiting up to five seconds for
// in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}

// BoundAddr returns the actual address the server bound to. Only valid after Start.
func (s *Server) BoundAddr() string { return s.boundAddr }

// limitBody caps the request body at the configured size.
func (s *Server) limitBody(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}
}
