package llm

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genui-gateway/internal/domain"
	"genui-gateway/internal/infra/config"
)

// fakeCLI writes an executable shell script standing in for the CLI binary.
// The script records its arguments, credential env and stdin next to itself.
func fakeCLI(t *testing.T, body string) (binary, dir string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture")
	}
	dir = t.TempDir()
	script := "#!/bin/sh\n" +
		"printf '%s\\n' \"$@\" > \"" + dir + "/args\"\n" +
		"printf '%s|%s' \"$ANTHROPIC_API_KEY\" \"$CLAUDE_CODE_OAUTH_TOKEN\" > \"" + dir + "/env\"\n" +
		"cat > \"" + dir + "/stdin\"\n" +
		body + "\n"
	binary = filepath.Join(dir, "fake-cli")
	require.NoError(t, os.WriteFile(binary, []byte(script), 0o755))
	return binary, dir
}

func readFixture(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func drainText(ch <-chan domain.TextChunk) (string, error) {
	var sb strings.Builder
	for chunk := range ch {
		if chunk.Err != nil {
			return sb.String(), chunk.Err
		}
		sb.WriteString(chunk.Text)
	}
	return sb.String(), nil
}

func TestCLIStreamTextDeltas(t *testing.T) {
	binary, dir := fakeCLI(t, `cat <<'JSON'
{"type":"system","subtype":"init"}
{"type":"stream_event","event":{"type":"message_start"}}
{"type":"stream_event","event":{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}}
{"type":"stream_event","event":{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" world"}}}
{"type":"assistant","message":{"content":[{"type":"text","text":"Hello world"}]}}
{"type":"result","subtype":"success","is_error":false,"result":"Hello world"}
JSON`)

	s := NewCLIStreamer(config.CLIConfig{Binary: binary, Model: "default-model", ExtraArgs: []string{"--max-turns", "1"}}, newTestLogger())
	ch, err := s.StreamText(context.Background(), domain.TextRequest{
		Credential: "sk-ant-oat01-setup",
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: "SYSTEM"},
			{Role: domain.RoleUser, Content: "hi"},
		},
	})
	require.NoError(t, err)

	text, err := drainText(ch)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text, "assistant message must not duplicate deltas")

	args := strings.Split(strings.TrimSpace(readFixture(t, dir, "args")), "\n")
	assert.Contains(t, args, "stream-json")
	assert.Contains(t, args, "--include-partial-messages")
	assert.Contains(t, args, "default-model")
	assert.Contains(t, args, "SYSTEM")
	assert.Equal(t, []string{"--max-turns", "1"}, args[len(args)-2:])

	assert.Equal(t, "|sk-ant-oat01-setup", readFixture(t, dir, "env"))
	assert.Equal(t, "hi", readFixture(t, dir, "stdin"))
}

func TestCLIStreamTextAPIKeyEnv(t *testing.T) {
	binary, dir := fakeCLI(t, `echo '{"type":"result","is_error":false,"result":"ok"}'`)

	s := NewCLIStreamer(config.CLIConfig{Binary: binary}, newTestLogger())
	ch, err := s.StreamText(context.Background(), domain.TextRequest{
		Credential: "sk-ant-api03-key",
		Messages:   []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	text, err := drainText(ch)
	require.NoError(t, err)
	assert.Equal(t, "ok", text, "result text is the fallback when nothing streamed")
	assert.Equal(t, "sk-ant-api03-key|", readFixture(t, dir, "env"))
}

func TestCLIStreamTextAssistantFallback(t *testing.T) {
	binary, _ := fakeCLI(t, `echo '{"type":"assistant","message":{"content":[{"type":"text","text":"whole"},{"type":"tool_use"}]}}'`)

	s := NewCLIStreamer(config.CLIConfig{Binary: binary}, newTestLogger())
	ch, err := s.StreamText(context.Background(), domain.TextRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	text, err := drainText(ch)
	require.NoError(t, err)
	assert.Equal(t, "whole", text)
}

func TestCLIStreamTextResultError(t *testing.T) {
	binary, _ := fakeCLI(t, `echo '{"type":"result","subtype":"success","is_error":true,"result":"Invalid API key"}'`)

	s := NewCLIStreamer(config.CLIConfig{Binary: binary}, newTestLogger())
	ch, err := s.StreamText(context.Background(), domain.TextRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	_, err = drainText(ch)
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)
}

func TestCLIStreamTextNonZeroExit(t *testing.T) {
	binary, _ := fakeCLI(t, `echo "boom on stderr" >&2; exit 3`)

	s := NewCLIStreamer(config.CLIConfig{Binary: binary}, newTestLogger())
	ch, err := s.StreamText(context.Background(), domain.TextRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	_, err = drainText(ch)
	require.ErrorIs(t, err, domain.ErrProviderError)
	assert.Contains(t, err.Error(), "boom on stderr")
}

func TestCLIStreamTextMissingBinary(t *testing.T) {
	s := NewCLIStreamer(config.CLIConfig{Binary: filepath.Join(t.TempDir(), "missing")}, newTestLogger())
	_, err := s.StreamText(context.Background(), domain.TextRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	})
	assert.ErrorIs(t, err, domain.ErrProviderError)
}

func TestCLIStreamTextEmptyPrompt(t *testing.T) {
	s := NewCLIStreamer(config.CLIConfig{Binary: "unused"}, newTestLogger())
	_, err := s.StreamText(context.Background(), domain.TextRequest{
		Messages: []domain.Message{{Role: domain.RoleSystem, Content: "only system"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCLIStreamTextCancelKillsProcess(t *testing.T) {
	binary, _ := fakeCLI(t, `echo '{"type":"stream_event","event":{"type":"content_block_delta","delta":{"type":"text_delta","text":"start"}}}'
exec sleep 30`)

	ctx, cancel := context.WithCancel(context.Background())
	s := NewCLIStreamer(config.CLIConfig{Binary: binary}, newTestLogger())
	ch, err := s.StreamText(ctx, domain.TextRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	first := <-ch
	assert.Equal(t, "start", first.Text)
	cancel()

	done := make(chan struct{})
	go func() {
		for range ch {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not close after cancellation")
	}
}

func TestRenderTranscript(t *testing.T) {
	system, prompt := renderTranscript([]domain.Message{
		{Role: domain.RoleSystem, Content: "rules"},
		{Role: domain.RoleUser, Content: "one"},
		{Role: domain.RoleAssistant, Content: "two"},
		{Role: domain.RoleUser, Content: "three"},
	})
	assert.Equal(t, "rules", system)
	assert.Equal(t, "User: one\n\nAssistant: two\n\nUser: three", prompt)
}

func TestTailBuffer(t *testing.T) {
	b := &tailBuffer{max: 4}
	b.Write([]byte("abc"))
	b.Write([]byte("def"))
	assert.Equal(t, "cdef", b.String())
}
