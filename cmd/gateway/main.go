package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"genui-gateway/internal/infra/config"
	"genui-gateway/internal/infra/logger"
	"genui-gateway/internal/infra/tracer"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "--help", "-h", "help":
			showUsage()
			return
		}
	}

	if len(os.Args) < 2 || strings.HasPrefix(os.Args[1], "-") {
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
		return
	}

	switch os.Args[1] {
	case "token":
		if err := runToken(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "token: %v\n", err)
			os.Exit(1)
		}
	case "doctor":
		if err := runDoctor(); err != nil {
			fmt.Fprintf(os.Stderr, "doctor: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\nRun 'genui-gateway --help' for usage information.\n", os.Args[1])
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`genui-gateway - streaming chat gateway with generative UI tools

USAGE:
    genui-gateway [COMMAND] [FLAGS]

COMMANDS:
    token       Manage the stored Anthropic credential
                Subcommands: status, set <token> [profile], delete
    doctor      Run health checks on your setup

    (no command) - Serve HTTP

FLAGS:
    -h, --help         Show this help message
    --config PATH      Specify config file path (default: ./config.yaml)

CONFIGURATION:
    Config file: ./config.yaml (optional; defaults are used when missing)
    Environment: GENUI_* variables override config
    Secrets:     values prefixed with enc: are decrypted with GENUI_CONFIG_KEY`)
}

func configPath() string {
	for i, arg := range os.Args {
		if arg == "--config" && i+1 < len(os.Args) {
			return os.Args[i+1]
		}
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	if p := os.Getenv("GENUI_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

func run() error {
	// 1. Config
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// 2. Logger & Tracer
	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser()

	ctx := context.Background()
	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(shutdownCtx); err != nil {
			log.Warn("tracer shutdown", "error", err)
		}
	}()

	// 3. Providers, tools and services
	app, err := buildApp(cfg, log)
	if err != nil {
		return err
	}

	// 4. Graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("genui-gateway starting",
		"version", version,
		"addr", cfg.Server.Addr,
		"model", cfg.Chat.Model,
		"ui_tools", len(app.Catalog.Schemas()),
		"cli", cfg.LLM.CLI.Enabled,
		"circuit_breaker", cfg.LLM.CircuitBreaker.Enabled,
		"mcp_expose", cfg.MCP.Expose,
		"credential", app.Tokens.Status().Source,
	)

	// 5. Serve until signalled
	return app.Server.Start(ctx)
}
