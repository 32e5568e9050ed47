package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the gateway.
type Config struct {
	Server   ServerConfig `yaml:"server"`
	LLM      LLMConfig    `yaml:"llm"`
	Chat     ChatConfig   `yaml:"chat"`
	Auth     AuthConfig   `yaml:"auth"`
	MCP      MCPConfig    `yaml:"mcp"`
	Logger   LoggerConfig `yaml:"logger"`
	Tracer   TracerConfig `yaml:"tracer"`
	Includes []string     `yaml:"includes,omitempty"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	CORSOrigins       []string      `yaml:"cors_origins"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	// WriteTimeout of zero keeps long-lived streams open.
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// LLMConfig holds upstream provider settings.
type LLMConfig struct {
	Anthropic      ProviderConfig       `yaml:"anthropic"`
	CLI            CLIConfig            `yaml:"cli"`
	Completions    ProviderConfig       `yaml:"completions"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// CLIConfig configures the local assistant CLI used for setup-token credentials.
type CLIConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Binary    string   `yaml:"binary"`
	Model     string   `yaml:"model"`
	ExtraArgs []string `yaml:"extra_args,omitempty"`
}

// CircuitBreakerConfig holds circuit breaker settings for LLM providers.
type CircuitBreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// PoolConfig holds HTTP connection pool settings for LLM providers.
type PoolConfig struct {
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `yaml:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`
}

// ProviderConfig holds settings for a single HTTP LLM provider.
type ProviderConfig struct {
	Name        string        `yaml:"name"`
	Type        string        `yaml:"type"`
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	ConnTimeout time.Duration `yaml:"conn_timeout"`
	// RespTimeout bounds the wait for response headers, not the stream body.
	RespTimeout    time.Duration `yaml:"resp_timeout"`
	Pool           PoolConfig    `yaml:"pool"`
	ThinkingBudget int           `yaml:"thinking_budget,omitempty"`
}

// ChatConfig tunes the chat drivers.
type ChatConfig struct {
	DetectThreshold int    `yaml:"detect_threshold"`
	Model           string `yaml:"model"`
	MaxTokens       int    `yaml:"max_tokens"`
	ThinkingBudget  int    `yaml:"thinking_budget"`
}

// AuthConfig locates the stored credential.
type AuthConfig struct {
	TokenFile string `yaml:"token_file"`
	// Token is a static fallback used when no token file exists.
	Token string `yaml:"token,omitempty"`
}

// MCPConfig controls the MCP server registry.
type MCPConfig struct {
	Enabled []string `yaml:"enabled"`
	// Expose serves the UI tool catalog over MCP at /mcp/rpc.
	Expose bool `yaml:"expose"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`

	// SampleRatio is the fraction of root spans recorded. Zero or one
	// records everything.
	SampleRatio float64 `yaml:"sample_ratio"`
}

// defaultTokenFile returns $HOME/.genui/auth.json, or ./auth.json without a home.
func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "auth.json"
	}
	return filepath.Join(home, ".genui", "auth.json")
}

func defaultPool() PoolConfig {
	return PoolConfig{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     0,
		IdleConnTimeout:     90 * time.Second,
	}
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              "0.0.0.0:8000",
			CORSOrigins:       []string{"http://localhost:5173", "http://localhost:3000"},
			ReadHeaderTimeout: 10 * time.Second,
			MaxBodyBytes:      1 << 20,
		},
		LLM: LLMConfig{
			Anthropic: ProviderConfig{
				Name:        "anthropic",
				Type:        "anthropic",
				BaseURL:     "https://api.anthropic.com",
				Model:       "claude-sonnet-4-20250514",
				ConnTimeout: 10 * time.Second,
				RespTimeout: 60 * time.Second,
				Pool:        defaultPool(),
			},
			CLI: CLIConfig{
				Enabled: true,
				Binary:  "claude",
			},
			Completions: ProviderConfig{
				Name:        "openrouter",
				Type:        "openrouter",
				BaseURL:     "https://openrouter.ai/api/v1",
				Model:       "anthropic/claude-sonnet-4",
				ConnTimeout: 10 * time.Second,
				RespTimeout: 60 * time.Second,
				Pool:        defaultPool(),
			},
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:     true,
				MaxFailures: 5,
				Timeout:     30 * time.Second,
				Interval:    60 * time.Second,
			},
		},
		Chat: ChatConfig{
			DetectThreshold: 30,
			Model:           "claude-sonnet-4-20250514",
			MaxTokens:       4096,
		},
		Auth: AuthConfig{
			TokenFile: defaultTokenFile(),
		},
		MCP: MCPConfig{
			Enabled: []string{},
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
	}
}

// Load reads a YAML config file, applies env var overrides, and decrypts secrets.
// A missing file is not an error: defaults plus environment are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return finish(cfg)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	if err := validatePermissions(absPath); err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if len(cfg.Includes) > 0 {
		if err := resolveIncludes(cfg, absPath); err != nil {
			return nil, err
		}
		// The main file wins over its includes.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		cfg.Includes = nil
	}

	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	ApplyEnvOverrides(cfg)

	if passphrase := os.Getenv("GENUI_CONFIG_KEY"); passphrase != "" {
		if err := decryptSecrets(cfg, passphrase); err != nil {
			return nil, fmt.Errorf("decrypt secrets: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides maps GENUI_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GENUI_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("GENUI_SERVER_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitAndTrim(v, ",")
	}
	if v := os.Getenv("GENUI_ANTHROPIC_BASE_URL"); v != "" {
		cfg.LLM.Anthropic.BaseURL = v
	}
	if v := os.Getenv("GENUI_ANTHROPIC_MODEL"); v != "" {
		cfg.LLM.Anthropic.Model = v
	}
	if v := os.Getenv("GENUI_CLI_BINARY"); v != "" {
		cfg.LLM.CLI.Binary = v
	}
	if v := os.Getenv("GENUI_CLI_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.LLM.CLI.Enabled = b
		}
	}
	if v := os.Getenv("GENUI_COMPLETIONS_BASE_URL"); v != "" {
		cfg.LLM.Completions.BaseURL = v
	}
	if v := os.Getenv("GENUI_COMPLETIONS_MODEL"); v != "" {
		cfg.LLM.Completions.Model = v
	}
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" && cfg.LLM.Completions.APIKey == "" {
		cfg.LLM.Completions.APIKey = v
	}
	if v := os.Getenv("GENUI_COMPLETIONS_API_KEY"); v != "" {
		cfg.LLM.Completions.APIKey = v
	}
	if v := os.Getenv("GENUI_CHAT_MODEL"); v != "" {
		cfg.Chat.Model = v
	}
	if v := os.Getenv("GENUI_CHAT_DETECT_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Chat.DetectThreshold = n
		}
	}
	if v := os.Getenv("GENUI_CHAT_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Chat.MaxTokens = n
		}
	}
	if v := os.Getenv("GENUI_AUTH_TOKEN_FILE"); v != "" {
		cfg.Auth.TokenFile = v
	}
	if v := os.Getenv("GENUI_AUTH_TOKEN"); v != "" {
		cfg.Auth.Token = v
	}
	if v := os.Getenv("GENUI_MCP_ENABLED"); v != "" {
		cfg.MCP.Enabled = splitAndTrim(v, ",")
	}
	if v := os.Getenv("GENUI_MCP_EXPOSE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MCP.Expose = b
		}
	}
	if v := os.Getenv("GENUI_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("GENUI_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("GENUI_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("GENUI_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
}

// splitAndTrim splits s by sep, trims each element and drops empty ones.
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// decryptSecrets finds "enc:..." values in secret fields and decrypts them.
func decryptSecrets(cfg *Config, passphrase string) error {
	secrets := []struct {
		name  string
		field *string
	}{
		{"llm.anthropic.api_key", &cfg.LLM.Anthropic.APIKey},
		{"llm.completions.api_key", &cfg.LLM.Completions.APIKey},
		{"auth.token", &cfg.Auth.Token},
	}
	for _, s := range secrets {
		if !strings.HasPrefix(*s.field, "enc:") {
			continue
		}
		decrypted, err := DecryptValue(strings.TrimPrefix(*s.field, "enc:"), passphrase)
		if err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		*s.field = decrypted
	}
	return nil
}

// EncryptValue encrypts a plaintext value with AES-256-GCM using a passphrase.
func EncryptValue(plaintext, passphrase string) (string, error) {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	// Format: hex(salt) + ":" + hex(nonce+ciphertext)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(ciphertext), nil
}

// DecryptValue decrypts a value produced by EncryptValue.
func DecryptValue(encrypted, passphrase string) (string, error) {
	saltHex, dataHex, ok := strings.Cut(encrypted, ":")
	if !ok {
		return "", fmt.Errorf("invalid encrypted format")
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return "", fmt.Errorf("decode salt: %w", err)
	}

	data, err := hex.DecodeString(dataHex)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}

	return string(plaintext), nil
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

// deriveKey uses Argon2id to derive a 32-byte key from passphrase + salt.
func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, 32)
}

// validatePermissions checks the config file has restrictive permissions.
func validatePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	mode := info.Mode().Perm()
	// Allow 0600 and 0644 (readable by others but not writable)
	if mode&0o077 > 0o044 {
		return fmt.Errorf("config file %s has insecure permissions %o (want 0600 or 0644)", path, mode)
	}
	return nil
}
