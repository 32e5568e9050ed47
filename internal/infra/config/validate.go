package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a *ValidationError
// when one or more problems are found, allowing callers to inspect all issues.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateServer(cfg, ve)
	validateLLM(cfg, ve)
	validateChat(cfg, ve)
	validateAuth(cfg, ve)
	validateLogger(cfg, ve)
	validateTracer(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateServer(cfg *Config, ve *ValidationError) {
	if cfg.Server.Addr == "" {
		ve.Add("server.addr must not be empty")
	} else if _, _, err := net.SplitHostPort(cfg.Server.Addr); err != nil {
		ve.Add("server.addr %q is not a valid host:port", cfg.Server.Addr)
	}
	if cfg.Server.ReadHeaderTimeout < 0 {
		ve.Add("server.read_header_timeout must be >= 0")
	}
	if cfg.Server.WriteTimeout < 0 {
		ve.Add("server.write_timeout must be >= 0")
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		ve.Add("server.max_body_bytes must be > 0")
	}
	for i, o := range cfg.Server.CORSOrigins {
		if o == "*" {
			continue
		}
		if u, err := url.Parse(o); err != nil || u.Scheme == "" || u.Host == "" {
			ve.Add("server.cors_origins[%d] %q is not a valid origin", i, o)
		}
	}
}

var validCompletionTypes = map[string]bool{
	"openai":     true,
	"openrouter": true,
}

func validateLLM(cfg *Config, ve *ValidationError) {
	validateProvider("llm.anthropic", cfg.LLM.Anthropic, ve)
	if cfg.LLM.Anthropic.Type != "" && cfg.LLM.Anthropic.Type != "anthropic" {
		ve.Add("llm.anthropic.type %q is invalid (want: anthropic)", cfg.LLM.Anthropic.Type)
	}

	validateProvider("llm.completions", cfg.LLM.Completions, ve)
	if t := cfg.LLM.Completions.Type; t != "" && !validCompletionTypes[t] {
		ve.Add("llm.completions.type %q is invalid (want: openai, openrouter)", t)
	}

	if cfg.LLM.CLI.Enabled && cfg.LLM.CLI.Binary == "" {
		ve.Add("llm.cli.binary must not be empty when the cli provider is enabled")
	}

	cb := cfg.LLM.CircuitBreaker
	if cb.Enabled {
		if cb.MaxFailures == 0 {
			ve.Add("llm.circuit_breaker.max_failures must be > 0 when enabled")
		}
		if cb.Timeout <= 0 {
			ve.Add("llm.circuit_breaker.timeout must be > 0 when enabled")
		}
	}
}

func validateProvider(prefix string, p ProviderConfig, ve *ValidationError) {
	if p.BaseURL == "" {
		ve.Add("%s.base_url must not be empty", prefix)
	} else if u, err := url.Parse(p.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		ve.Add("%s.base_url %q is not a valid URL", prefix, p.BaseURL)
	}
	if p.ConnTimeout < 0 {
		ve.Add("%s.conn_timeout must be >= 0", prefix)
	}
	if p.RespTimeout < 0 {
		ve.Add("%s.resp_timeout must be >= 0", prefix)
	}
	if p.ThinkingBudget < 0 {
		ve.Add("%s.thinking_budget must be >= 0", prefix)
	}
}

func validateChat(cfg *Config, ve *ValidationError) {
	if cfg.Chat.DetectThreshold <= 0 {
		ve.Add("chat.detect_threshold must be > 0")
	}
	if cfg.Chat.Model == "" {
		ve.Add("chat.model must not be empty")
	}
	if cfg.Chat.MaxTokens <= 0 {
		ve.Add("chat.max_tokens must be > 0")
	}
	if cfg.Chat.ThinkingBudget < 0 {
		ve.Add("chat.thinking_budget must be >= 0")
	}
	if cfg.Chat.ThinkingBudget > 0 && cfg.Chat.ThinkingBudget >= cfg.Chat.MaxTokens {
		ve.Add("chat.thinking_budget must be less than chat.max_tokens")
	}
}

func validateAuth(cfg *Config, ve *ValidationError) {
	if cfg.Auth.TokenFile == "" && cfg.Auth.Token == "" {
		ve.Add("auth.token_file or auth.token must be set")
	}
}

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

func validateLogger(cfg *Config, ve *ValidationError) {
	if !validLogLevels[strings.ToLower(cfg.Logger.Level)] {
		ve.Add("logger.level %q is invalid (want: debug, info, warn, error)", cfg.Logger.Level)
	}
	if f := cfg.Logger.Format; f != "" && f != "json" && f != "text" {
		ve.Add("logger.format %q is invalid (want: json, text)", f)
	}
}

var validExporters = map[string]bool{
	"noop":   true,
	"stdout": true,
}

func validateTracer(cfg *Config, ve *ValidationError) {
	if cfg.Tracer.Enabled && !validExporters[cfg.Tracer.Exporter] {
		ve.Add("tracer.exporter %q is invalid (want: noop, stdout)", cfg.Tracer.Exporter)
	}
	if r := cfg.Tracer.SampleRatio; r < 0 || r > 1 {
		ve.Add("tracer.sample_ratio %v must be between 0 and 1", r)
	}
}
