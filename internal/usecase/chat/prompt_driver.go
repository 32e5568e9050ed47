package chat

import (
	"context"
	"iter"
	"log/slog"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"

	"genui-gateway/internal/domain"
	"genui-gateway/internal/infra/tracer"
)

// DefaultDetectThreshold is the number of buffered runes after which a
// response without a call marker is committed to plain text.
const DefaultDetectThreshold = 30

// PromptDriverDeps holds injected dependencies for the prompt driver.
type PromptDriverDeps struct {
	Streamer  domain.TextStreamer
	Catalog   domain.ToolCatalog
	Logger    *slog.Logger
	IDs       IDFunc // optional, nil = NewID
	Threshold int    // optional, <= 0 = DefaultDetectThreshold
}

// PromptDriver runs tool use over a plain-text provider. The catalog is
// described in a system instruction and a call is recognized in the
// model's text output. At most one tool call is made per request.
type PromptDriver struct {
	deps         PromptDriverDeps
	systemPrompt string
}

var _ Driver = (*PromptDriver)(nil)

// NewPromptDriver creates a prompt driver. The system instruction is built
// once from the catalog.
func NewPromptDriver(deps PromptDriverDeps) *PromptDriver {
	deps.IDs = orDefaultIDs(deps.IDs)
	if deps.Threshold <= 0 {
		deps.Threshold = DefaultDetectThreshold
	}
	return &PromptDriver{
		deps:         deps,
		systemPrompt: BuildToolPrompt(deps.Catalog.Schemas()),
	}
}

func (d *PromptDriver) Name() string { return "prompt" }

// SystemPrompt returns the instruction prepended to every conversation.
func (d *PromptDriver) SystemPrompt() string { return d.systemPrompt }

type detectState int

const (
	stateUndecided detectState = iota
	stateBufferingToolCall
	stateStreamingText
)

func (s detectState) String() string {
	switch s {
	case stateBufferingToolCall:
		return "buffering_tool_call"
	case stateStreamingText:
		return "streaming_text"
	default:
		return "undecided"
	}
}

// promptRun is the per-request detection state.
type promptRun struct {
	d      *PromptDriver
	out    *sink
	state  detectState
	buf    strings.Builder
	textID string
}

func (d *PromptDriver) Stream(ctx context.Context, in Input) iter.Seq[domain.StreamEvent] {
	return func(yield func(domain.StreamEvent) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		ctx, span := tracer.StartSpan(ctx, "chat.prompt.stream",
			trace.WithAttributes(
				tracer.StringAttr("llm.provider", d.deps.Streamer.Name()),
				tracer.StringAttr("llm.model", in.Model),
			),
		)
		defer span.End()

		run := &promptRun{d: d, out: newSink(yield)}

		msgs := make([]domain.Message, 0, len(in.Messages)+1)
		msgs = append(msgs, domain.Message{Role: domain.RoleSystem, Content: d.systemPrompt})
		msgs = append(msgs, in.Messages...)

		chunks, err := d.deps.Streamer.StreamText(ctx, domain.TextRequest{
			Credential: in.Credential,
			Model:      in.Model,
			Messages:   msgs,
		})
		if err != nil {
			run.fail(span, err)
			return
		}

		for chunk := range chunks {
			if chunk.Err != nil {
				run.fail(span, chunk.Err)
				return
			}
			if !run.feed(chunk.Text) {
				return
			}
		}
		if err := ctx.Err(); err != nil {
			return
		}

		span.SetAttributes(tracer.StringAttr("chat.detect_state", run.state.String()))
		if run.finish(ctx) {
			tracer.SetOK(span)
		}
	}
}

func (r *promptRun) feed(text string) bool {
	if text == "" {
		return true
	}
	switch r.state {
	case stateStreamingText:
		return r.out.emit(domain.TextDelta{ID: r.textID, Delta: text})

	case stateBufferingToolCall:
		r.buf.WriteString(text)
		return true

	default:
		r.buf.WriteString(text)
		buffered := r.buf.String()
		if containsMarker(buffered) {
			r.state = stateBufferingToolCall
			return true
		}
		if utf8.RuneCountInString(buffered) >= r.d.deps.Threshold {
			r.state = stateStreamingText
			r.textID = r.d.deps.IDs(prefixText)
			r.buf.Reset()
			return r.out.emit(
				domain.TextStart{ID: r.textID},
				domain.TextDelta{ID: r.textID, Delta: buffered},
			)
		}
		return true
	}
}

func (r *promptRun) finish(ctx context.Context) bool {
	switch r.state {
	case stateStreamingText:
		return r.out.emit(domain.TextEnd{ID: r.textID}, domain.Finish{})

	default:
		buffered := r.buf.String()
		if buffered != "" {
			if call := ExtractToolCall(buffered, r.d.deps.Catalog.Has); call != nil {
				if !r.runTool(ctx, call) {
					return false
				}
			} else {
				if r.state == stateBufferingToolCall {
					r.d.deps.Logger.Debug("tool call marker without valid call, degrading to text",
						"length", len(buffered))
				}
				id := r.d.deps.IDs(prefixText)
				if !r.out.emit(
					domain.TextStart{ID: id},
					domain.TextDelta{ID: id, Delta: buffered},
					domain.TextEnd{ID: id},
				) {
					return false
				}
			}
		}
		return r.out.emit(domain.Finish{})
	}
}

func (r *promptRun) runTool(ctx context.Context, call *domain.ToolCall) bool {
	call.ID = r.d.deps.IDs(prefixCall)
	r.d.deps.Logger.Info("prompt tool call detected", "tool", call.Name, "call_id", call.ID)

	if !r.out.emit(
		domain.ToolInputStart{ToolCallID: call.ID, ToolName: call.Name},
		domain.ToolInputDelta{ToolCallID: call.ID, InputTextDelta: string(call.Input)},
		domain.ToolInputAvailable{ToolCallID: call.ID, ToolName: call.Name, Input: call.Input},
	) {
		return false
	}

	output := r.d.deps.Catalog.Execute(ctx, call.Name, call.Input)
	return r.out.emit(domain.ToolOutputAvailable{ToolCallID: call.ID, Output: output})
}

func (r *promptRun) fail(span trace.Span, err error) {
	tracer.RecordError(span, err)
	r.d.deps.Logger.Warn("prompt stream failed",
		"provider", r.d.deps.Streamer.Name(),
		"state", r.state.String(),
		"error", err,
		"code", domain.ErrorCodeOf(err),
	)
	r.out.emit(domain.StreamError{ErrorText: err.Error()})
}
