package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"genui-gateway/internal/domain"
	"genui-gateway/internal/infra/config"
	"genui-gateway/internal/infra/tracer"
)

const (
	// cliWaitDelay is how long a cancelled CLI gets to exit before its
	// pipes are forcibly closed.
	cliWaitDelay = 2 * time.Second

	// stderrTail bounds the stderr kept for error messages.
	stderrTail = 2048
)

// CLIStreamer implements domain.TextStreamer by driving the claude CLI in
// print mode and reading its stream-json output.
type CLIStreamer struct {
	binary    string
	model     string
	extraArgs []string
	logger    *slog.Logger
}

// NewCLIStreamer creates a streamer for the configured CLI binary.
func NewCLIStreamer(cfg config.CLIConfig, logger *slog.Logger) *CLIStreamer {
	binary := cfg.Binary
	if binary == "" {
		binary = "claude"
	}
	return &CLIStreamer{
		binary:    binary,
		model:     cfg.Model,
		extraArgs: cfg.ExtraArgs,
		logger:    logger,
	}
}

// Name implements domain.TextStreamer.
func (c *CLIStreamer) Name() string { return "claude-cli" }

// StreamText implements domain.TextStreamer. The subprocess is killed when
// ctx is cancelled.
func (c *CLIStreamer) StreamText(ctx context.Context, req domain.TextRequest) (<-chan domain.TextChunk, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	system, prompt := renderTranscript(req.Messages)
	if strings.TrimSpace(prompt) == "" {
		return nil, domain.NewDomainError("CLIStreamer.StreamText", domain.ErrInvalidInput, "empty prompt")
	}

	ctx, span := tracer.StartSpan(ctx, "llm.stream",
		trace.WithAttributes(
			tracer.StringAttr("llm.provider", c.Name()),
			tracer.StringAttr("llm.model", model),
			tracer.IntAttr("llm.messages", len(req.Messages)),
		),
	)

	cmd := exec.CommandContext(ctx, c.binary, c.args(model, system)...)
	cmd.WaitDelay = cliWaitDelay
	cmd.Env = cliEnv(req.Credential)
	cmd.Stdin = strings.NewReader(prompt)
	stderr := &tailBuffer{max: stderrTail}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		tracer.RecordError(span, err)
		span.End()
		return nil, fmt.Errorf("cli stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		tracer.RecordError(span, err)
		span.End()
		return nil, fmt.Errorf("%w: start %s: %w", domain.ErrProviderError, c.binary, err)
	}
	c.logger.Debug("cli started", "binary", c.binary, "model", model, "pid", cmd.Process.Pid)

	ch := make(chan domain.TextChunk, 16)
	go func() {
		defer close(ch)
		defer span.End()

		send := func(chunk domain.TextChunk) bool {
			select {
			case ch <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		dec := &cliDecoder{}
		streamErr := dec.run(stdout, func(text string) bool {
			return send(domain.TextChunk{Text: text})
		})
		if streamErr != nil {
			// Drain so the process is not blocked on a full pipe.
			_, _ = io.Copy(io.Discard, stdout)
		}
		waitErr := cmd.Wait()

		if ctx.Err() != nil {
			c.logger.Debug("cli cancelled", "pid", cmd.Process.Pid)
			return
		}

		failure := streamErr
		if failure == nil && waitErr != nil {
			failure = fmt.Errorf("%w: %s exited: %w: %s",
				domain.ErrProviderError, c.binary, waitErr, strings.TrimSpace(stderr.String()))
		}
		if failure != nil {
			tracer.RecordError(span, failure)
			c.logger.Warn("cli stream failed", "error", failure)
			send(domain.TextChunk{Err: failure})
			return
		}
		tracer.SetOK(span)
	}()

	return ch, nil
}

func (c *CLIStreamer) args(model, system string) []string {
	args := []string{
		"-p",
		"--output-format", "stream-json",
		"--verbose",
		"--include-partial-messages",
	}
	if model != "" {
		args = append(args, "--model", model)
	}
	if system != "" {
		args = append(args, "--system-prompt", system)
	}
	return append(args, c.extraArgs...)
}

// cliEnv passes the credential in the variable the CLI expects for its kind.
func cliEnv(credential string) []string {
	env := make([]string, 0, len(os.Environ())+1)
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "ANTHROPIC_API_KEY=") || strings.HasPrefix(kv, "CLAUDE_CODE_OAUTH_TOKEN=") {
			continue
		}
		env = append(env, kv)
	}
	switch {
	case credential == "":
	case domain.ClassifyCredential(credential) == domain.CredentialSetupToken:
		env = append(env, "CLAUDE_CODE_OAUTH_TOKEN="+credential)
	default:
		env = append(env, "ANTHROPIC_API_KEY="+credential)
	}
	return env
}

// renderTranscript splits system messages out and renders the rest as the
// prompt. A single user message is sent verbatim.
func renderTranscript(msgs []domain.Message) (system, prompt string) {
	var sys []string
	var turns []domain.Message
	for _, m := range msgs {
		if m.Role == domain.RoleSystem {
			sys = append(sys, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	system = strings.Join(sys, "\n\n")

	if len(turns) == 1 && turns[0].Role == domain.RoleUser {
		return system, turns[0].Content
	}

	var sb strings.Builder
	for i, m := range turns {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if m.Role == domain.RoleAssistant {
			sb.WriteString("Assistant: ")
		} else {
			sb.WriteString("User: ")
		}
		sb.WriteString(m.Content)
	}
	return system, sb.String()
}

// --- stream-json wire types ---

type cliLine struct {
	Type    string          `json:"type"`
	Event   *cliStreamEvent `json:"event,omitempty"`
	Message *cliMessage     `json:"message,omitempty"`
	IsError bool            `json:"is_error,omitempty"`
	Result  string          `json:"result,omitempty"`
	Subtype string          `json:"subtype,omitempty"`
}

type cliStreamEvent struct {
	Type  string `json:"type"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta,omitempty"`
}

type cliMessage struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// cliDecoder extracts assistant text from stream-json lines. Partial text
// deltas are preferred; a complete assistant message is only forwarded when
// no delta arrived for it.
type cliDecoder struct {
	sawDelta bool
	gotText  bool
}

// run reads r until EOF or until emit returns false.
func (d *cliDecoder) run(r io.Reader, emit func(string) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELine)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg cliLine
		if err := json.Unmarshal(line, &msg); err != nil {
			// The CLI may print non-JSON notices; skip them.
			continue
		}

		text, err := d.handle(msg)
		if err != nil {
			return err
		}
		if text != "" && !emit(text) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: read cli output: %w", domain.ErrProviderError, err)
	}
	return nil
}

func (d *cliDecoder) handle(msg cliLine) (string, error) {
	switch msg.Type {
	case "stream_event":
		if msg.Event == nil {
			return "", nil
		}
		switch msg.Event.Type {
		case "message_start":
			d.sawDelta = false
		case "content_block_delta":
			if msg.Event.Delta != nil && msg.Event.Delta.Type == "text_delta" {
				d.sawDelta = true
				d.gotText = true
				return msg.Event.Delta.Text, nil
			}
		}
		return "", nil

	case "assistant":
		if d.sawDelta || msg.Message == nil {
			d.sawDelta = false
			return "", nil
		}
		var sb strings.Builder
		for _, c := range msg.Message.Content {
			if c.Type == "text" {
				sb.WriteString(c.Text)
			}
		}
		if sb.Len() > 0 {
			d.gotText = true
		}
		return sb.String(), nil

	case "result":
		if msg.IsError {
			return "", cliResultError(msg)
		}
		if !d.gotText && msg.Result != "" {
			d.gotText = true
			return msg.Result, nil
		}
		return "", nil
	}
	return "", nil
}

func cliResultError(msg cliLine) error {
	detail := strings.TrimSpace(msg.Result)
	if detail == "" {
		detail = msg.Subtype
	}
	lower := strings.ToLower(detail)
	switch {
	case strings.Contains(lower, "invalid api key"), strings.Contains(lower, "authentication"),
		strings.Contains(lower, "oauth"):
		return fmt.Errorf("%w: cli: %s", domain.ErrAuthInvalid, detail)
	case strings.Contains(lower, "rate limit"):
		return fmt.Errorf("%w: cli: %s", domain.ErrRateLimit, detail)
	default:
		return fmt.Errorf("%w: cli: %s", domain.ErrProviderError, detail)
	}
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
