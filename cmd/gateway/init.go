package main

import (
	"fmt"
	"log/slog"

	"genui-gateway/internal/adapter/auth"
	"genui-gateway/internal/adapter/gateway"
	"genui-gateway/internal/adapter/llm"
	"genui-gateway/internal/adapter/mcp"
	"genui-gateway/internal/adapter/tool"
	"genui-gateway/internal/domain"
	"genui-gateway/internal/infra/config"
	"genui-gateway/internal/usecase/chat"
	"genui-gateway/internal/usecase/completion"
)

// App holds the wired components of the gateway.
type App struct {
	Catalog  *tool.Catalog
	Tokens   *auth.TokenStore
	Registry *mcp.Registry
	Server   *gateway.Server
}

// LLMComponents holds the upstream providers, wrapped with circuit
// breakers when enabled.
type LLMComponents struct {
	Native      domain.NativeStreamer
	Text        domain.TextStreamer // nil when the CLI provider is disabled
	Completions domain.CompletionProvider
}

func initLLM(cfg *config.Config, log *slog.Logger) LLMComponents {
	cbCfg := cfg.LLM.CircuitBreaker

	var native domain.NativeStreamer = llm.NewAnthropicStreamer(cfg.LLM.Anthropic, log)
	var completions domain.CompletionProvider = llm.NewCompletionProvider(cfg.LLM.Completions, log)
	var text domain.TextStreamer
	if cfg.LLM.CLI.Enabled {
		text = llm.NewCLIStreamer(cfg.LLM.CLI, log)
	}

	if cbCfg.Enabled {
		native = llm.NewCircuitBreakerNative(native, cbCfg, log)
		completions = llm.NewCircuitBreakerCompletion(completions, cbCfg, log)
		if text != nil {
			text = llm.NewCircuitBreakerText(text, cbCfg, log)
		}
		log.Info("llm circuit breaker enabled",
			"max_failures", cbCfg.MaxFailures,
			"timeout", cbCfg.Timeout,
			"interval", cbCfg.Interval,
		)
	}

	return LLMComponents{Native: native, Text: text, Completions: completions}
}

func initChat(cfg *config.Config, providers LLMComponents, catalog domain.ToolCatalog, tokens domain.CredentialStore, log *slog.Logger) *chat.Orchestrator {
	drivers := chat.Drivers{
		Native: chat.NewNativeDriver(chat.NativeDriverDeps{
			Streamer:       providers.Native,
			Catalog:        catalog,
			Logger:         log,
			MaxTokens:      cfg.Chat.MaxTokens,
			ThinkingBudget: cfg.Chat.ThinkingBudget,
		}),
	}
	if providers.Text != nil {
		drivers.Prompt = chat.NewPromptDriver(chat.PromptDriverDeps{
			Streamer:  providers.Text,
			Catalog:   catalog,
			Logger:    log,
			Threshold: cfg.Chat.DetectThreshold,
		})
	}

	return chat.NewOrchestrator(chat.OrchestratorDeps{
		Credentials:  tokens,
		Drivers:      drivers,
		Logger:       log,
		DefaultModel: cfg.Chat.Model,
	})
}

func buildApp(cfg *config.Config, log *slog.Logger) (*App, error) {
	catalog, err := tool.NewDefaultCatalog(log)
	if err != nil {
		return nil, fmt.Errorf("tool catalog: %w", err)
	}

	tokens := auth.NewTokenStore(cfg.Auth, log)
	registry := mcp.NewDefaultRegistry(cfg.MCP.Enabled, log)
	providers := initLLM(cfg, log)

	deps := gateway.Deps{
		Chat: initChat(cfg, providers, catalog, tokens, log),
		Completions: completion.NewService(completion.Deps{
			Provider:     providers.Completions,
			Tools:        registry,
			Logger:       log,
			DefaultModel: cfg.LLM.Completions.Model,
		}),
		Credentials: tokens,
		MCP:         registry,
		Logger:      log,
		Version:     version,
	}
	if cfg.MCP.Expose {
		deps.MCPHandler = mcp.NewCatalogHandler(mcp.NewCatalogServer(catalog, version, log))
		log.Info("ui tool catalog exposed over mcp", "path", mcp.RPCPath)
	}

	return &App{
		Catalog:  catalog,
		Tokens:   tokens,
		Registry: registry,
		Server:   gateway.NewServer(cfg.Server, deps),
	}, nil
}
