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

// OpenAIProvider implements domain.CompletionProvider for any
// OpenAI-compatible chat completions API.
type OpenAIProvider struct {
	name    string
	model   string
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewOpenAIProvider creates a provider with configured timeouts.
func NewOpenAIProvider(cfg config.ProviderConfig, logger *slog.Logger) *OpenAIProvider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	name := cfg.Name
	if name == "" {
		name = "openai"
	}

	return &OpenAIProvider{
		name:    name,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  NewHTTPClient(cfg),
		logger:  logger,
	}
}

// NewCompletionProvider builds the upstream selected by cfg.Type.
func NewCompletionProvider(cfg config.ProviderConfig, logger *slog.Logger) domain.CompletionProvider {
	if cfg.Type == "openrouter" {
		return NewOpenRouterProvider(cfg, logger)
	}
	return NewOpenAIProvider(cfg, logger)
}

// Name implements domain.CompletionProvider.
func (p *OpenAIProvider) Name() string { return p.name }

// Complete implements domain.CompletionProvider.
func (p *OpenAIProvider) Complete(ctx context.Context, req domain.CompletionRequest) (json.RawMessage, error) {
	if req.Model == "" {
		req.Model = p.model
	}
	ctx, span := tracer.StartSpan(ctx, "llm.complete",
		trace.WithAttributes(
			tracer.StringAttr("llm.provider", p.name),
			tracer.StringAttr("llm.model", req.Model),
		),
	)
	defer span.End()

	body, err := json.Marshal(toOpenAIRequest(req, false))
	if err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	respBody, err := doJSONRequest(ctx, p.client, p.baseURL+"/chat/completions", body, p.headers())
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}
	if !json.Valid(respBody) {
		err := fmt.Errorf("%w: upstream returned invalid JSON", domain.ErrProviderError)
		tracer.RecordError(span, err)
		return nil, err
	}

	tracer.SetOK(span)
	p.logger.Debug("completion done", "provider", p.name, "model", req.Model, "bytes", len(respBody))
	return respBody, nil
}

// StreamCompletion implements domain.CompletionProvider.
func (p *OpenAIProvider) StreamCompletion(ctx context.Context, req domain.CompletionRequest) (<-chan domain.CompletionChunk, error) {
	if req.Model == "" {
		req.Model = p.model
	}

	body, err := json.Marshal(toOpenAIRequest(req, true))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	ctx, span := tracer.StartSpan(ctx, "llm.stream",
		trace.WithAttributes(
			tracer.StringAttr("llm.provider", p.name),
			tracer.StringAttr("llm.model", req.Model),
		),
	)

	httpResp, err := doStreamRequest(ctx, p.client, p.baseURL+"/chat/completions", body, p.headers())
	if err != nil {
		tracer.RecordError(span, err)
		span.End()
		return nil, err
	}

	parse := func(data []byte) ([]domain.CompletionChunk, bool) {
		var chunk openaiStreamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			return []domain.CompletionChunk{{
				Err: fmt.Errorf("%w: decode chunk: %w", domain.ErrProviderError, err),
			}}, true
		}
		if chunk.Error != nil {
			return []domain.CompletionChunk{{
				Err: fmt.Errorf("%w: %s", domain.ErrProviderError, chunk.Error.Message),
			}}, true
		}
		return []domain.CompletionChunk{fromOpenAIStreamChunk(chunk)}, false
	}

	ch := parseSSEStream(ctx, httpResp.Body, parse, func(readErr error) []domain.CompletionChunk {
		defer span.End()
		if readErr != nil && !errors.Is(readErr, context.Canceled) {
			err := fmt.Errorf("%w: read stream: %w", domain.ErrProviderError, readErr)
			tracer.RecordError(span, err)
			return []domain.CompletionChunk{{Err: err}}
		}
		tracer.SetOK(span)
		return nil
	})
	return ch, nil
}

func (p *OpenAIProvider) headers() map[string]string {
	headers := map[string]string{}
	if p.apiKey != "" {
		headers["Authorization"] = "Bearer " + p.apiKey
	}
	return headers
}

// --- OpenAI API wire types ---

type openaiRequest struct {
	Model       string                     `json:"model"`
	Messages    []domain.CompletionMessage `json:"messages"`
	Temperature *float64                   `json:"temperature,omitempty"`
	MaxTokens   int                        `json:"max_tokens,omitempty"`
	Tools       []domain.FunctionTool      `json:"tools,omitempty"`
	Stream      bool                       `json:"stream,omitempty"`
}

type openaiToolCall struct {
	Index    int                    `json:"index"`
	ID       string                 `json:"id,omitempty"`
	Type     string                 `json:"type,omitempty"`
	Function openaiToolCallFunction `json:"function"`
}

type openaiToolCallFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

type openaiStreamChunk struct {
	ID      string               `json:"id"`
	Model   string               `json:"model"`
	Created int64                `json:"created"`
	Choices []openaiStreamChoice `json:"choices"`
	Error   *openaiError         `json:"error,omitempty"`
}

type openaiStreamChoice struct {
	Delta        openaiStreamDelta `json:"delta"`
	FinishReason *string           `json:"finish_reason"`
}

type openaiStreamDelta struct {
	Content   string           `json:"content,omitempty"`
	ToolCalls []openaiToolCall `json:"tool_calls,omitempty"`
}

type openaiError struct {
	Message string `json:"message"`
}

func toOpenAIRequest(req domain.CompletionRequest, stream bool) openaiRequest {
	return openaiRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Tools:       req.Tools,
		Stream:      stream,
	}
}

func fromOpenAIStreamChunk(chunk openaiStreamChunk) domain.CompletionChunk {
	out := domain.CompletionChunk{
		ID:      chunk.ID,
		Model:   chunk.Model,
		Created: chunk.Created,
	}
	if len(chunk.Choices) == 0 {
		return out
	}
	c := chunk.Choices[0]
	out.Content = c.Delta.Content
	if c.FinishReason != nil && *c.FinishReason != "" {
		out.FinishReason = c.FinishReason
	}
	for _, tc := range c.Delta.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, domain.CompletionToolCall{
			Index:     tc.Index,
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out
}
