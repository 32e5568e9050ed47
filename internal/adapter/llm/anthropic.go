package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"genui-gateway/internal/domain"
	"genui-gateway/internal/infra/config"
	"genui-gateway/internal/infra/tracer"
)

const (
	defaultAnthropicVersion = "2023-06-01"
	defaultAnthropicURL     = "https://api.anthropic.com"
	defaultMaxTokens        = 4096

	// oauthBeta must accompany bearer authentication with a setup token.
	oauthBeta = "oauth-2025-04-20"
)

// AnthropicStreamer implements domain.NativeStreamer for the Anthropic Messages API.
type AnthropicStreamer struct {
	name    string
	model   string
	apiKey  string
	baseURL string
	version string
	client  *http.Client
	logger  *slog.Logger
}

// NewAnthropicStreamer creates a streamer for the Anthropic Messages API.
func NewAnthropicStreamer(cfg config.ProviderConfig, logger *slog.Logger) *AnthropicStreamer {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultAnthropicURL
	}
	name := cfg.Name
	if name == "" {
		name = "anthropic"
	}

	return &AnthropicStreamer{
		name:    name,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		version: defaultAnthropicVersion,
		client:  NewHTTPClient(cfg),
		logger:  logger,
	}
}

// Name implements domain.NativeStreamer.
func (p *AnthropicStreamer) Name() string { return p.name }

// StreamMessages implements domain.NativeStreamer.
func (p *AnthropicStreamer) StreamMessages(ctx context.Context, req domain.NativeRequest) (<-chan domain.ProviderEvent, error) {
	if req.Model == "" {
		req.Model = p.model
	}
	credential := req.Credential
	if credential == "" {
		credential = p.apiKey
	}
	if credential == "" {
		return nil, domain.NewDomainError("AnthropicStreamer.StreamMessages", domain.ErrAuthMissing, "no credential")
	}

	ctx, span := tracer.StartSpan(ctx, "llm.stream",
		trace.WithAttributes(
			tracer.StringAttr("llm.provider", p.name),
			tracer.StringAttr("llm.model", req.Model),
			tracer.IntAttr("llm.turns", len(req.Turns)),
			tracer.IntAttr("llm.tools", len(req.Tools)),
		),
	)

	antReq := toAnthropicRequest(req)
	antReq.Stream = true

	body, err := json.Marshal(antReq)
	if err != nil {
		tracer.RecordError(span, err)
		span.End()
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpResp, err := doStreamRequest(ctx, p.client, p.baseURL+"/v1/messages", body, p.headers(credential))
	if err != nil {
		tracer.RecordError(span, err)
		span.End()
		return nil, err
	}

	dec := &anthropicDecoder{}
	events := parseSSEStream(ctx, httpResp.Body, dec.decode, func(readErr error) []domain.ProviderEvent {
		defer span.End()

		var failure error
		switch {
		case readErr != nil && errors.Is(readErr, context.Canceled):
			return nil
		case readErr != nil:
			failure = fmt.Errorf("%w: read stream: %w", domain.ErrProviderError, readErr)
		case dec.failed:
			tracer.RecordError(span, dec.err)
			return nil
		case !dec.stopped:
			failure = fmt.Errorf("%w: stream ended before message_stop", domain.ErrProviderError)
		default:
			span.SetAttributes(tracer.StringAttr("llm.stop_reason", dec.stopReason))
			tracer.SetOK(span)
			p.logger.Debug("anthropic stream complete", "model", req.Model, "stop_reason", dec.stopReason)
			return nil
		}

		tracer.RecordError(span, failure)
		return []domain.ProviderEvent{{Kind: domain.ProviderFailure, Err: failure}}
	})

	return events, nil
}

func (p *AnthropicStreamer) headers(credential string) map[string]string {
	h := map[string]string{"anthropic-version": p.version}
	if domain.ClassifyCredential(credential) == domain.CredentialSetupToken {
		h["Authorization"] = "Bearer " + credential
		h["anthropic-beta"] = oauthBeta
	} else {
		h["x-api-key"] = credential
	}
	return h
}

// --- Anthropic API wire types ---

type anthropicRequest struct {
	Model     string             `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	System    string             `json:"system,omitempty"`
	MaxTokens int                `json:"max_tokens"`
	Tools     []anthropicTool    `json:"tools,omitempty"`
	Stream    bool               `json:"stream,omitempty"`
	Thinking  *anthropicThinking `json:"thinking,omitempty"`
}

type anthropicThinking struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	Thinking  string          `json:"thinking,omitempty"`
	Signature string          `json:"signature,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// --- Anthropic streaming wire types ---

type anthropicStreamEvent struct {
	Type         string            `json:"type"`
	Index        int               `json:"index"`
	ContentBlock *anthropicContent `json:"content_block,omitempty"`
	Delta        json.RawMessage   `json:"delta,omitempty"`
	Error        *anthropicError   `json:"error,omitempty"`
}

type anthropicDelta struct {
	Type        string `json:"type"`
	Text        string `json:"text"`
	Thinking    string `json:"thinking"`
	Signature   string `json:"signature"`
	PartialJSON string `json:"partial_json"`
	StopReason  string `json:"stop_reason"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// anthropicDecoder turns SSE payloads into provider events and remembers how
// the stream ended. It is used by a single reader goroutine.
type anthropicDecoder struct {
	stopped    bool
	failed     bool
	err        error
	stopReason string
}

func (d *anthropicDecoder) decode(data []byte) ([]domain.ProviderEvent, bool) {
	var evt anthropicStreamEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return d.fail(fmt.Errorf("%w: decode stream event: %w", domain.ErrProviderError, err))
	}

	switch evt.Type {
	case "content_block_start":
		if evt.ContentBlock == nil {
			return nil, false
		}
		ev := domain.ProviderEvent{Kind: domain.ProviderBlockStart, Index: evt.Index}
		switch evt.ContentBlock.Type {
		case "text":
			ev.Block = domain.BlockText
		case "thinking":
			ev.Block = domain.BlockThinking
		case "tool_use":
			ev.Block = domain.BlockToolUse
			ev.ToolID = evt.ContentBlock.ID
			ev.ToolName = evt.ContentBlock.Name
		default:
			return nil, false
		}
		return []domain.ProviderEvent{ev}, false

	case "content_block_delta":
		var delta anthropicDelta
		if err := json.Unmarshal(evt.Delta, &delta); err != nil {
			return d.fail(fmt.Errorf("%w: decode delta: %w", domain.ErrProviderError, err))
		}
		ev := domain.ProviderEvent{Index: evt.Index}
		switch delta.Type {
		case "text_delta":
			ev.Kind, ev.Delta = domain.ProviderTextDelta, delta.Text
		case "thinking_delta":
			ev.Kind, ev.Delta = domain.ProviderThinkingDelta, delta.Thinking
		case "signature_delta":
			ev.Kind, ev.Delta = domain.ProviderSignatureDelta, delta.Signature
		case "input_json_delta":
			ev.Kind, ev.Delta = domain.ProviderInputJSONDelta, delta.PartialJSON
		default:
			return nil, false
		}
		return []domain.ProviderEvent{ev}, false

	case "content_block_stop":
		return []domain.ProviderEvent{{Kind: domain.ProviderBlockStop, Index: evt.Index}}, false

	case "message_delta":
		var delta anthropicDelta
		if len(evt.Delta) > 0 {
			_ = json.Unmarshal(evt.Delta, &delta)
		}
		d.stopReason = delta.StopReason
		return []domain.ProviderEvent{{Kind: domain.ProviderMessageDelta, StopReason: delta.StopReason}}, false

	case "message_stop":
		d.stopped = true
		return []domain.ProviderEvent{{Kind: domain.ProviderMessageStop}}, true

	case "error":
		return d.fail(anthropicStreamError(evt.Error))

	default:
		// message_start, ping
		return nil, false
	}
}

func (d *anthropicDecoder) fail(err error) ([]domain.ProviderEvent, bool) {
	d.failed = true
	d.err = err
	return []domain.ProviderEvent{{Kind: domain.ProviderFailure, Err: err}}, true
}

// anthropicStreamError maps an in-stream error event to a domain error.
func anthropicStreamError(e *anthropicError) error {
	if e == nil {
		return fmt.Errorf("%w: unknown stream error", domain.ErrProviderError)
	}
	detail := e.Type + ": " + e.Message
	switch e.Type {
	case "rate_limit_error", "overloaded_error":
		return fmt.Errorf("%w: %s", domain.ErrRateLimit, detail)
	case "authentication_error", "permission_error":
		return fmt.Errorf("%w: %s", domain.ErrAuthInvalid, detail)
	case "request_too_large":
		return fmt.Errorf("%w: %s", domain.ErrContextOverflow, detail)
	case "invalid_request_error":
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, detail)
	default:
		return fmt.Errorf("%w: %s", domain.ErrProviderError, detail)
	}
}

func toAnthropicRequest(req domain.NativeRequest) anthropicRequest {
	antReq := anthropicRequest{
		Model:     req.Model,
		System:    req.System,
		MaxTokens: req.MaxTokens,
	}
	if antReq.MaxTokens <= 0 {
		antReq.MaxTokens = defaultMaxTokens
	}

	// Enable extended thinking when budget is set
	if req.ThinkingBudget > 0 {
		antReq.Thinking = &anthropicThinking{
			Type:         "enabled",
			BudgetTokens: req.ThinkingBudget,
		}
	}

	for _, turn := range req.Turns {
		msg := anthropicMessage{Role: turn.Role}
		for _, b := range turn.Blocks {
			msg.Content = append(msg.Content, toAnthropicContent(b))
		}
		antReq.Messages = append(antReq.Messages, msg)
	}

	for _, t := range req.Tools {
		antReq.Tools = append(antReq.Tools, anthropicTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
		})
	}

	return antReq
}

func toAnthropicContent(b domain.ContentBlock) anthropicContent {
	switch b.Type {
	case domain.BlockThinking:
		return anthropicContent{Type: "thinking", Thinking: b.Thinking, Signature: b.Signature}
	case domain.BlockToolUse:
		input := b.Input
		if len(input) == 0 {
			input = json.RawMessage(`{}`)
		}
		return anthropicContent{Type: "tool_use", ID: b.ToolUseID, Name: b.ToolName, Input: input}
	case domain.BlockToolResult:
		return anthropicContent{
			Type:      "tool_result",
			ToolUseID: b.ToolUseID,
			Content:   b.Content,
			IsError:   b.IsError,
		}
	default:
		return anthropicContent{Type: "text", Text: b.Text}
	}
}
