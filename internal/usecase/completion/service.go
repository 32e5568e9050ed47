// Package completion implements the OpenAI-compatible chat completions
// passthrough with per-request MCP tool attachment.
package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"genui-gateway/internal/domain"
	"genui-gateway/internal/infra/tracer"
)

// DefaultTemperature applies when a request leaves temperature unset.
const DefaultTemperature = 0.7

// ToolSource supplies MCP tools in function-calling format.
type ToolSource interface {
	EnabledTools() []domain.FunctionTool
	ToolsFor(servers []string) []domain.FunctionTool
}

// Request is an inbound /v1/chat/completions body.
type Request struct {
	Model       string                     `json:"model"`
	Messages    []domain.CompletionMessage `json:"messages"`
	Stream      *bool                      `json:"stream,omitempty"`
	Temperature *float64                   `json:"temperature,omitempty"`
	MaxTokens   int                        `json:"max_tokens,omitempty"`
	WebSearch   bool                       `json:"web_search,omitempty"`
	MCPServers  []string                   `json:"mcp_servers,omitempty"`
}

// Streaming reports whether the response should be streamed. Unset means yes.
func (r Request) Streaming() bool {
	return r.Stream == nil || *r.Stream
}

// Deps holds the service collaborators.
type Deps struct {
	Provider     domain.CompletionProvider
	Tools        ToolSource
	Logger       *slog.Logger
	DefaultModel string
}

// Service forwards completion requests to the configured upstream.
type Service struct {
	deps Deps
}

// NewService creates a completion service.
func NewService(deps Deps) *Service {
	return &Service{deps: deps}
}

// Complete performs a non-streaming completion and returns the upstream document.
func (s *Service) Complete(ctx context.Context, in Request) (json.RawMessage, error) {
	req, err := s.prepare(in)
	if err != nil {
		return nil, err
	}

	ctx, span := s.startSpan(ctx, "completion.complete", req)
	defer span.End()

	out, err := s.deps.Provider.Complete(ctx, req)
	if err != nil {
		tracer.RecordError(span, err)
		s.deps.Logger.Warn("completion failed", "provider", s.deps.Provider.Name(), "error", err, "code", domain.ErrorCodeOf(err))
		return nil, err
	}
	tracer.SetOK(span)
	return out, nil
}

// Stream opens a streaming completion. Opening errors are returned directly;
// failures after the stream is open are yielded once as the final element.
func (s *Service) Stream(ctx context.Context, in Request) (iter.Seq2[Chunk, error], error) {
	req, err := s.prepare(in)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	ctx, span := s.startSpan(ctx, "completion.stream", req)

	chunks, err := s.deps.Provider.StreamCompletion(ctx, req)
	if err != nil {
		tracer.RecordError(span, err)
		span.End()
		cancel()
		s.deps.Logger.Warn("completion stream failed", "provider", s.deps.Provider.Name(), "error", err, "code", domain.ErrorCodeOf(err))
		return nil, err
	}

	return func(yield func(Chunk, error) bool) {
		defer span.End()
		defer cancel()

		frames := 0
		for c := range chunks {
			if c.Err != nil {
				tracer.RecordError(span, c.Err)
				s.deps.Logger.Warn("completion stream aborted", "error", c.Err, "frames", frames)
				yield(Chunk{}, c.Err)
				return
			}
			for _, frame := range Frames(c) {
				frames++
				if !yield(frame, nil) {
					return
				}
			}
		}
		span.SetAttributes(tracer.IntAttr("completion.frames", frames))
		tracer.SetOK(span)
	}, nil
}

func (s *Service) startSpan(ctx context.Context, name string, req domain.CompletionRequest) (context.Context, trace.Span) {
	return tracer.StartSpan(ctx, name,
		trace.WithAttributes(
			tracer.StringAttr("llm.provider", s.deps.Provider.Name()),
			tracer.StringAttr("llm.model", req.Model),
			tracer.IntAttr("completion.messages", len(req.Messages)),
			tracer.IntAttr("completion.tools", len(req.Tools)),
		),
	)
}

// prepare validates the request and resolves defaults and tools.
func (s *Service) prepare(in Request) (domain.CompletionRequest, error) {
	const op = "completion.Service"
	if len(in.Messages) == 0 {
		return domain.CompletionRequest{}, domain.NewDomainError(op, domain.ErrInvalidInput, "messages must not be empty")
	}
	for i, m := range in.Messages {
		if !domain.IsValidRole(m.Role) && m.Role != "tool" {
			return domain.CompletionRequest{}, domain.NewDomainError(op, domain.ErrInvalidInput,
				fmt.Sprintf("messages[%d]: invalid role %q", i, m.Role))
		}
		if len(m.Content) == 0 {
			return domain.CompletionRequest{}, domain.NewDomainError(op, domain.ErrInvalidInput,
				fmt.Sprintf("messages[%d]: content is required", i))
		}
	}

	req := domain.CompletionRequest{
		Model:       in.Model,
		Messages:    in.Messages,
		Temperature: in.Temperature,
		MaxTokens:   in.MaxTokens,
	}
	if req.Model == "" {
		req.Model = s.deps.DefaultModel
	}
	if req.Temperature == nil {
		t := DefaultTemperature
		req.Temperature = &t
	}
	if in.WebSearch {
		s.deps.Logger.Info("web_search requested; no search backend is wired")
	}
	if len(in.MCPServers) > 0 && s.deps.Tools != nil {
		req.Tools = mergeTools(s.deps.Tools.EnabledTools(), s.deps.Tools.ToolsFor(in.MCPServers))
	}
	return req, nil
}

// mergeTools concatenates tool lists, dropping repeated function names.
func mergeTools(lists ...[]domain.FunctionTool) []domain.FunctionTool {
	var out []domain.FunctionTool
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, t := range list {
			if seen[t.Function.Name] {
				continue
			}
			seen[t.Function.Name] = true
			out = append(out, t)
		}
	}
	return out
}
