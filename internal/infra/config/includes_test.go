package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// layout writes files (relative path -> content) under a temp dir with
// 0600 permissions and returns the dir.
func layout(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func loadFrom(t *testing.T, dir string) (*Config, error) {
	t.Helper()
	return Load(filepath.Join(dir, "config.yaml"))
}

func TestIncludesMerge(t *testing.T) {
	dir := layout(t, map[string]string{
		"config.yaml":   "includes:\n  - \"llm.yaml\"\n  - \"conf.d/*.yaml\"\n",
		"llm.yaml":      "llm:\n  completions:\n    api_key: \"sk-or-from-include\"\n",
		"conf.d/a.yaml": "chat:\n  detect_threshold: 64\n",
		"conf.d/b.yaml": "mcp:\n  enabled: [\"calculator\"]\n",
	})

	cfg, err := loadFrom(t, dir)
	require.NoError(t, err)
	assert.Equal(t, "sk-or-from-include", cfg.LLM.Completions.APIKey)
	assert.Equal(t, 64, cfg.Chat.DetectThreshold)
	assert.Equal(t, []string{"calculator"}, cfg.MCP.Enabled)
}

func TestIncludesAbsolutePath(t *testing.T) {
	other := layout(t, map[string]string{"shared.yaml": "logger:\n  format: \"text\"\n"})
	dir := layout(t, map[string]string{
		"config.yaml": fmt.Sprintf("includes:\n  - %q\n", filepath.Join(other, "shared.yaml")),
	})

	cfg, err := loadFrom(t, dir)
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Logger.Format)
}

func TestIncludesMainFileWins(t *testing.T) {
	dir := layout(t, map[string]string{
		"config.yaml":   "includes:\n  - \"override.yaml\"\nchat:\n  max_tokens: 2000\n",
		"override.yaml": "chat:\n  max_tokens: 8000\n  model: \"from-include\"\n",
	})

	cfg, err := loadFrom(t, dir)
	require.NoError(t, err)
	assert.Equal(t, 2000, cfg.Chat.MaxTokens)
	assert.Equal(t, "from-include", cfg.Chat.Model)
}

func TestIncludesNested(t *testing.T) {
	dir := layout(t, map[string]string{
		"config.yaml":     "includes:\n  - \"sub/level1.yaml\"\n",
		"sub/level1.yaml": "includes:\n  - \"level2.yaml\"\nlogger:\n  level: \"debug\"\n",
		"sub/level2.yaml": "logger:\n  format: \"text\"\n",
	})

	cfg, err := loadFrom(t, dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "text", cfg.Logger.Format, "level2 resolves relative to sub/")
}

func TestIncludesNoMatchOrEmpty(t *testing.T) {
	dir := layout(t, map[string]string{
		"config.yaml": "includes:\n  - \"conf.d/*.yaml\"\n  - \"empty.yaml\"\n",
		"empty.yaml":  "",
	})

	cfg, err := loadFrom(t, dir)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Chat.DetectThreshold)
}

func TestIncludesErrors(t *testing.T) {
	deep := map[string]string{"config.yaml": "includes:\n  - \"l1.yaml\"\n"}
	for i := 1; i <= maxIncludeDepth+1; i++ {
		deep[fmt.Sprintf("l%d.yaml", i)] = fmt.Sprintf("includes:\n  - \"l%d.yaml\"\n", i+1)
	}
	deep[fmt.Sprintf("l%d.yaml", maxIncludeDepth+2)] = ""

	tests := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name: "cycle",
			files: map[string]string{
				"config.yaml": "includes:\n  - \"a.yaml\"\n",
				"a.yaml":      "includes:\n  - \"b.yaml\"\n",
				"b.yaml":      "includes:\n  - \"a.yaml\"\n",
			},
			wantErr: "circular include",
		},
		{
			name:    "self",
			files:   map[string]string{"config.yaml": "includes:\n  - \"config.yaml\"\n"},
			wantErr: "circular include",
		},
		{
			name:    "escape",
			files:   map[string]string{"config.yaml": "includes:\n  - \"../../etc/passwd\"\n"},
			wantErr: "escapes config directory",
		},
		{
			name:    "missing",
			files:   map[string]string{"config.yaml": "includes:\n  - \"nope.yaml\"\n"},
			wantErr: "config includes",
		},
		{
			name: "bad yaml",
			files: map[string]string{
				"config.yaml": "includes:\n  - \"bad.yaml\"\n",
				"bad.yaml":    "invalid: [yaml: bad",
			},
			wantErr: "parse",
		},
		{
			name:    "too deep",
			files:   deep,
			wantErr: "nesting deeper than",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadFrom(t, layout(t, tt.files))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIncludesRejectsLoosePermissions(t *testing.T) {
	dir := layout(t, map[string]string{
		"config.yaml":   "includes:\n  - \"insecure.yaml\"\n",
		"insecure.yaml": "logger:\n  level: debug\n",
	})
	require.NoError(t, os.Chmod(filepath.Join(dir, "insecure.yaml"), 0o666))

	_, err := loadFrom(t, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure permissions")
}
