package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"genui-gateway/internal/adapter/llm"
	"genui-gateway/internal/infra/config"
)

func TestInitLLMWrapsWithBreakers(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Defaults()

	providers := initLLM(cfg, log)
	if _, ok := providers.Native.(*llm.CircuitBreakerNative); !ok {
		t.Errorf("Native = %T, want circuit breaker", providers.Native)
	}
	if _, ok := providers.Text.(*llm.CircuitBreakerText); !ok {
		t.Errorf("Text = %T, want circuit breaker", providers.Text)
	}
	if _, ok := providers.Completions.(*llm.CircuitBreakerCompletion); !ok {
		t.Errorf("Completions = %T, want circuit breaker", providers.Completions)
	}

	cfg.LLM.CircuitBreaker.Enabled = false
	cfg.LLM.CLI.Enabled = false
	providers = initLLM(cfg, log)
	if _, ok := providers.Native.(*llm.AnthropicStreamer); !ok {
		t.Errorf("Native = %T, want bare streamer", providers.Native)
	}
	if providers.Text != nil {
		t.Errorf("Text = %T, want nil with cli disabled", providers.Text)
	}
}

func TestBuildAppRoutes(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Defaults()
	cfg.Auth.TokenFile = filepath.Join(t.TempDir(), "auth.json")
	cfg.MCP.Enabled = []string{"calculator"}
	cfg.MCP.Expose = true

	app, err := buildApp(cfg, log)
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	if len(app.Catalog.Schemas()) == 0 {
		t.Error("catalog should carry the UI tools")
	}

	h := app.Server.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"messages":[{"role":"user","parts":[{"type":"text","text":"hi"}]}]}`)))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("chat without credential = %d, want 401", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/mcp/tools", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "calculator__calculate") {
		t.Errorf("mcp tools = %d %s", w.Code, w.Body.String())
	}
}
