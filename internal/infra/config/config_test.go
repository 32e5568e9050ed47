package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Server.Addr != "0.0.0.0:8000" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, "0.0.0.0:8000")
	}
	if cfg.Chat.DetectThreshold != 30 {
		t.Errorf("DetectThreshold = %d, want 30", cfg.Chat.DetectThreshold)
	}
	if cfg.Server.WriteTimeout != 0 {
		t.Errorf("WriteTimeout = %v, want 0 for streaming", cfg.Server.WriteTimeout)
	}
	if cfg.Logger.Level != "info" {
		t.Errorf("Logger.Level = %q, want %q", cfg.Logger.Level, "info")
	}
}

func TestLoadNonExistentReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Chat.MaxTokens != 4096 {
		t.Errorf("expected defaults, got MaxTokens=%d", cfg.Chat.MaxTokens)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  addr: "127.0.0.1:9000"
  cors_origins: ["https://app.example.com"]
chat:
  detect_threshold: 12
  model: "claude-test"
llm:
  anthropic:
    base_url: "https://anthropic.internal"
    conn_timeout: 3s
logger:
  level: "debug"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "https://app.example.com" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Chat.DetectThreshold != 12 || cfg.Chat.Model != "claude-test" {
		t.Errorf("Chat = %+v", cfg.Chat)
	}
	if cfg.LLM.Anthropic.BaseURL != "https://anthropic.internal" {
		t.Errorf("Anthropic.BaseURL = %q", cfg.LLM.Anthropic.BaseURL)
	}
	if cfg.LLM.Anthropic.ConnTimeout != 3*time.Second {
		t.Errorf("Anthropic.ConnTimeout = %v", cfg.LLM.Anthropic.ConnTimeout)
	}
	// Unset fields keep their defaults.
	if cfg.Chat.MaxTokens != 4096 {
		t.Errorf("MaxTokens = %d, want default 4096", cfg.Chat.MaxTokens)
	}
}

func TestLoadValidationFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("chat:\n  detect_threshold: -1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	assertContains(t, err.Error(), "chat.detect_threshold must be > 0")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GENUI_SERVER_ADDR", "127.0.0.1:7000")
	t.Setenv("GENUI_SERVER_CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("GENUI_LOGGER_LEVEL", "debug")
	t.Setenv("GENUI_CHAT_DETECT_THRESHOLD", "50")
	t.Setenv("GENUI_MCP_ENABLED", "calculator,web_search")
	t.Setenv("GENUI_MCP_EXPOSE", "true")
	t.Setenv("GENUI_CLI_ENABLED", "false")

	cfg := Defaults()
	ApplyEnvOverrides(cfg)

	if cfg.Server.Addr != "127.0.0.1:7000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://b.test" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Logger.Level != "debug" {
		t.Errorf("Logger.Level = %q, want %q", cfg.Logger.Level, "debug")
	}
	if cfg.Chat.DetectThreshold != 50 {
		t.Errorf("DetectThreshold = %d, want 50", cfg.Chat.DetectThreshold)
	}
	if len(cfg.MCP.Enabled) != 2 || cfg.MCP.Enabled[0] != "calculator" {
		t.Errorf("MCP.Enabled = %v", cfg.MCP.Enabled)
	}
	if !cfg.MCP.Expose {
		t.Error("MCP.Expose should be true")
	}
	if cfg.LLM.CLI.Enabled {
		t.Error("CLI.Enabled should be false")
	}
}

func TestEnvOverridesInvalidNumberIgnored(t *testing.T) {
	t.Setenv("GENUI_CHAT_MAX_TOKENS", "lots")

	cfg := Defaults()
	ApplyEnvOverrides(cfg)

	if cfg.Chat.MaxTokens != 4096 {
		t.Errorf("MaxTokens = %d, want unchanged 4096", cfg.Chat.MaxTokens)
	}
}

func TestEnvOverridesCompletionsKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-or-fallback")

	cfg := Defaults()
	ApplyEnvOverrides(cfg)
	if cfg.LLM.Completions.APIKey != "sk-or-fallback" {
		t.Errorf("APIKey = %q, want fallback", cfg.LLM.Completions.APIKey)
	}

	t.Setenv("GENUI_COMPLETIONS_API_KEY", "sk-or-explicit")
	cfg = Defaults()
	ApplyEnvOverrides(cfg)
	if cfg.LLM.Completions.APIKey != "sk-or-explicit" {
		t.Errorf("APIKey = %q, want explicit", cfg.LLM.Completions.APIKey)
	}
}

func TestApplyEnvOverridesTracer(t *testing.T) {
	t.Setenv("GENUI_TRACER_ENABLED", "true")
	t.Setenv("GENUI_TRACER_EXPORTER", "stdout")

	cfg := Defaults()
	ApplyEnvOverrides(cfg)

	if !cfg.Tracer.Enabled {
		t.Error("Tracer.Enabled should be true")
	}
	if cfg.Tracer.Exporter != "stdout" {
		t.Errorf("Tracer.Exporter = %q, want %q", cfg.Tracer.Exporter, "stdout")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	passphrase := "test-passphrase-123"
	plaintext := "sk-ant-api03-abcdef123456"

	encrypted, err := EncryptValue(plaintext, passphrase)
	if err != nil {
		t.Fatalf("EncryptValue: %v", err)
	}

	decrypted, err := DecryptValue(encrypted, passphrase)
	if err != nil {
		t.Fatalf("DecryptValue: %v", err)
	}

	if decrypted != plaintext {
		t.Errorf("got %q, want %q", decrypted, plaintext)
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	encrypted, err := EncryptValue("secret", "correct-pass")
	if err != nil {
		t.Fatal(err)
	}

	_, err = DecryptValue(encrypted, "wrong-pass")
	if err == nil {
		t.Error("expected error with wrong passphrase")
	}
}

func TestDecryptSecrets(t *testing.T) {
	passphrase := "test-config-key"
	encKey, err := EncryptValue("sk-ant-api03-secret", passphrase)
	if err != nil {
		t.Fatalf("EncryptValue: %v", err)
	}
	encToken, err := EncryptValue("sk-ant-oat01-static", passphrase)
	if err != nil {
		t.Fatalf("EncryptValue: %v", err)
	}

	cfg := Defaults()
	cfg.LLM.Anthropic.APIKey = "enc:" + encKey
	cfg.Auth.Token = "enc:" + encToken
	cfg.LLM.Completions.APIKey = "sk-or-plain"

	if err := decryptSecrets(cfg, passphrase); err != nil {
		t.Fatalf("decryptSecrets: %v", err)
	}

	if cfg.LLM.Anthropic.APIKey != "sk-ant-api03-secret" {
		t.Errorf("Anthropic.APIKey = %q", cfg.LLM.Anthropic.APIKey)
	}
	if cfg.Auth.Token != "sk-ant-oat01-static" {
		t.Errorf("Auth.Token = %q", cfg.Auth.Token)
	}
	if cfg.LLM.Completions.APIKey != "sk-or-plain" {
		t.Errorf("plain value should remain unchanged, got %q", cfg.LLM.Completions.APIKey)
	}
}

func TestDecryptSecretsInvalidCiphertext(t *testing.T) {
	cfg := Defaults()
	cfg.Auth.Token = "enc:not-valid"

	err := decryptSecrets(cfg, "pass")
	if err == nil {
		t.Fatal("expected error for invalid ciphertext")
	}
	assertContains(t, err.Error(), "auth.token")
}

func TestDecryptValueInvalidFormat(t *testing.T) {
	_, err := DecryptValue("no-colon-here", "passphrase")
	if err == nil {
		t.Error("expected error for missing colon separator")
	}
}

func TestDecryptValueInvalidSalt(t *testing.T) {
	_, err := DecryptValue("zzzz:aabb", "passphrase")
	if err == nil {
		t.Error("expected error for invalid salt hex")
	}
}

func TestDecryptValueInvalidCiphertext(t *testing.T) {
	_, err := DecryptValue("aabb:zzzz", "passphrase")
	if err == nil {
		t.Error("expected error for invalid ciphertext hex")
	}
}

func TestDecryptValueTooShort(t *testing.T) {
	// Valid hex but too short for nonce+ciphertext
	_, err := DecryptValue("aabbccddee112233aabbccddee112233:aabb", "passphrase")
	if err == nil {
		t.Error("expected error for ciphertext too short")
	}
}

func TestLoadInsecurePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "insecure.yaml")
	if err := os.WriteFile(path, []byte("chat:\n  max_tokens: 5\n"), 0600); err != nil {
		t.Fatal(err)
	}
	// Chmod explicitly so the umask does not mask the world-writable bit.
	if err := os.Chmod(path, 0666); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Error("expected error for insecure permissions")
	}
}

func TestLoadWithConfigKey(t *testing.T) {
	passphrase := "test-load-key"
	plainKey := "sk-ant-api03-loadtest"

	encrypted, err := EncryptValue(plainKey, passphrase)
	if err != nil {
		t.Fatalf("EncryptValue: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
llm:
  anthropic:
    api_key: "enc:` + encrypted + `"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GENUI_CONFIG_KEY", passphrase)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LLM.Anthropic.APIKey != plainKey {
		t.Errorf("APIKey = %q, want %q", cfg.LLM.Anthropic.APIKey, plainKey)
	}
}

func TestLoadDecryptSecretsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
llm:
  anthropic:
    api_key: "enc:invalid-not-hex"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GENUI_CONFIG_KEY", "some-passphrase")
	_, err := Load(path)
	if err == nil {
		t.Error("expected error from decrypt secrets")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("invalid: [yaml: bad"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestValidatePermissions(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte("test"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := validatePermissions(good); err != nil {
		t.Errorf("0600 should pass: %v", err)
	}

	readable := filepath.Join(dir, "readable.yaml")
	if err := os.WriteFile(readable, []byte("test"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(readable, 0644); err != nil {
		t.Fatal(err)
	}
	if err := validatePermissions(readable); err != nil {
		t.Errorf("0644 should pass: %v", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("test"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(bad, 0666); err != nil {
		t.Fatal(err)
	}
	if err := validatePermissions(bad); err == nil {
		t.Error("0666 should fail")
	}
}

func TestValidatePermissionsStatError(t *testing.T) {
	err := validatePermissions(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(" a , b,, c ", ",")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("splitAndTrim = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitAndTrim[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
