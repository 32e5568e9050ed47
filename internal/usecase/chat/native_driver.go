package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"iter"
	"log/slog"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"genui-gateway/internal/domain"
	"genui-gateway/internal/infra/tracer"
)

// NativeDriverDeps holds injected dependencies for the native driver.
type NativeDriverDeps struct {
	Streamer       domain.NativeStreamer
	Catalog        domain.ToolCatalog
	Logger         *slog.Logger
	IDs            IDFunc // optional, nil = NewID
	MaxTokens      int
	ThinkingBudget int // optional, 0 = extended thinking off
}

// NativeDriver runs the provider's structured tool-use loop: stream a turn,
// execute the requested tools, append the results and stream again until
// the provider stops asking for tools.
type NativeDriver struct {
	deps NativeDriverDeps
}

var _ Driver = (*NativeDriver)(nil)

func NewNativeDriver(deps NativeDriverDeps) *NativeDriver {
	deps.IDs = orDefaultIDs(deps.IDs)
	return &NativeDriver{deps: deps}
}

func (d *NativeDriver) Name() string { return "native" }

func (d *NativeDriver) Stream(ctx context.Context, in Input) iter.Seq[domain.StreamEvent] {
	return func(yield func(domain.StreamEvent) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		out := newSink(yield)
		system, turns := toTurns(in.Messages)
		req := domain.NativeRequest{
			Credential:     in.Credential,
			Model:          in.Model,
			System:         system,
			Turns:          turns,
			Tools:          d.deps.Catalog.Schemas(),
			MaxTokens:      d.deps.MaxTokens,
			ThinkingBudget: d.deps.ThinkingBudget,
		}

		for iteration := 1; ; iteration++ {
			turn, ok := d.iterate(ctx, iteration, req, out)
			if !ok {
				return
			}
			if len(turn.calls) == 0 || turn.stopReason != domain.StopReasonToolUse {
				out.emit(domain.Finish{})
				return
			}

			results := make([]domain.ContentBlock, 0, len(turn.calls))
			for _, call := range turn.calls {
				output := d.deps.Catalog.Execute(ctx, call.Name, call.Input)
				if !out.emit(domain.ToolOutputAvailable{ToolCallID: call.ID, Output: output}) {
					return
				}
				results = append(results, domain.ContentBlock{
					Type:      domain.BlockToolResult,
					ToolUseID: call.ID,
					Content:   string(output),
					IsError:   isErrorPayload(output),
				})
			}

			req.Turns = append(req.Turns,
				domain.Turn{Role: domain.RoleAssistant, Blocks: turn.assistantBlocks()},
				domain.Turn{Role: domain.RoleUser, Blocks: results},
			)
		}
	}
}

// iterate streams one provider turn. It returns false when the consumer
// stopped or the turn failed, in which case the StreamError is already out.
func (d *NativeDriver) iterate(ctx context.Context, iteration int, req domain.NativeRequest, out *sink) (*nativeTurn, bool) {
	ctx, span := tracer.StartSpan(ctx, "chat.native.iteration",
		trace.WithAttributes(
			tracer.StringAttr("llm.provider", d.deps.Streamer.Name()),
			tracer.StringAttr("llm.model", req.Model),
			tracer.IntAttr("chat.iteration", iteration),
			tracer.IntAttr("chat.turns", len(req.Turns)),
		),
	)
	defer span.End()

	events, err := d.deps.Streamer.StreamMessages(ctx, req)
	if err != nil {
		d.fail(span, out, err)
		return nil, false
	}

	turn := newNativeTurn(d.deps.IDs, out)
	for ev := range events {
		if ev.Kind == domain.ProviderFailure {
			err := ev.Err
			if err == nil {
				err = domain.ErrProviderError
			}
			d.fail(span, out, err)
			return nil, false
		}
		if !turn.handle(ev) {
			return nil, false
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, false
	}
	if !turn.close() {
		return nil, false
	}

	span.SetAttributes(
		tracer.StringAttr("llm.stop_reason", turn.stopReason),
		tracer.IntAttr("chat.tool_calls", len(turn.calls)),
	)
	tracer.SetOK(span)
	d.deps.Logger.Debug("native turn complete",
		"iteration", iteration, "stop_reason", turn.stopReason, "tool_calls", len(turn.calls))
	return turn, true
}

func (d *NativeDriver) fail(span trace.Span, out *sink, err error) {
	tracer.RecordError(span, err)
	d.deps.Logger.Warn("native stream failed",
		"provider", d.deps.Streamer.Name(),
		"error", err,
		"code", domain.ErrorCodeOf(err),
	)
	out.emit(domain.StreamError{ErrorText: err.Error()})
}

// blockAcc accumulates one content block of a provider turn.
type blockAcc struct {
	typ       domain.BlockType
	text      strings.Builder
	thinking  strings.Builder
	signature strings.Builder
	input     strings.Builder
	toolID    string
	toolName  string
	finished  bool
}

// nativeTurn maps the provider events of one turn to UI events while
// collecting the turn's content for resubmission.
type nativeTurn struct {
	ids IDFunc
	out *sink

	blocks map[int]*blockAcc

	textID      string
	reasoningID string

	calls      []domain.ToolCall
	stopReason string
}

func newNativeTurn(ids IDFunc, out *sink) *nativeTurn {
	return &nativeTurn{ids: ids, out: out, blocks: make(map[int]*blockAcc)}
}

func (t *nativeTurn) block(index int, typ domain.BlockType) *blockAcc {
	b, ok := t.blocks[index]
	if !ok {
		b = &blockAcc{typ: typ}
		t.blocks[index] = b
	}
	return b
}

func (t *nativeTurn) handle(ev domain.ProviderEvent) bool {
	switch ev.Kind {
	case domain.ProviderBlockStart:
		b := t.block(ev.Index, ev.Block)
		b.typ = ev.Block
		if ev.Block == domain.BlockToolUse {
			b.toolID = ev.ToolID
			if b.toolID == "" {
				b.toolID = t.ids(prefixCall)
			}
			b.toolName = ev.ToolName
			return t.out.emit(domain.ToolInputStart{ToolCallID: b.toolID, ToolName: b.toolName})
		}
		return true

	case domain.ProviderTextDelta:
		t.block(ev.Index, domain.BlockText).text.WriteString(ev.Delta)
		if !t.closeReasoning() {
			return false
		}
		if t.textID == "" {
			t.textID = t.ids(prefixText)
			if !t.out.emit(domain.TextStart{ID: t.textID}) {
				return false
			}
		}
		return t.out.emit(domain.TextDelta{ID: t.textID, Delta: ev.Delta})

	case domain.ProviderThinkingDelta:
		t.block(ev.Index, domain.BlockThinking).thinking.WriteString(ev.Delta)
		if !t.closeText() {
			return false
		}
		if t.reasoningID == "" {
			t.reasoningID = t.ids(prefixReasoning)
			if !t.out.emit(domain.ReasoningStart{ID: t.reasoningID}) {
				return false
			}
		}
		return t.out.emit(domain.ReasoningDelta{ID: t.reasoningID, Delta: ev.Delta})

	case domain.ProviderSignatureDelta:
		t.block(ev.Index, domain.BlockThinking).signature.WriteString(ev.Delta)
		return true

	case domain.ProviderInputJSONDelta:
		b := t.blocks[ev.Index]
		if b == nil || b.typ != domain.BlockToolUse || b.finished {
			return true
		}
		b.input.WriteString(ev.Delta)
		return t.out.emit(domain.ToolInputDelta{ToolCallID: b.toolID, InputTextDelta: ev.Delta})

	case domain.ProviderBlockStop:
		b := t.blocks[ev.Index]
		if b == nil {
			return true
		}
		switch b.typ {
		case domain.BlockToolUse:
			return t.finishCall(b)
		case domain.BlockText:
			return t.closeText()
		case domain.BlockThinking:
			return t.closeReasoning()
		}
		return true

	case domain.ProviderMessageDelta:
		if ev.StopReason != "" {
			t.stopReason = ev.StopReason
		}
		return true
	}
	return true
}

func (t *nativeTurn) finishCall(b *blockAcc) bool {
	if b.finished {
		return true
	}
	b.finished = true
	input := parseToolInput(b.input.String())
	t.calls = append(t.calls, domain.ToolCall{ID: b.toolID, Name: b.toolName, Input: input})
	return t.out.emit(domain.ToolInputAvailable{ToolCallID: b.toolID, ToolName: b.toolName, Input: input})
}

func (t *nativeTurn) closeText() bool {
	if t.textID == "" {
		return true
	}
	id := t.textID
	t.textID = ""
	return t.out.emit(domain.TextEnd{ID: id})
}

func (t *nativeTurn) closeReasoning() bool {
	if t.reasoningID == "" {
		return true
	}
	id := t.reasoningID
	t.reasoningID = ""
	return t.out.emit(domain.ReasoningEnd{ID: id})
}

// close ends open streams and finalizes tool blocks that never saw a stop.
func (t *nativeTurn) close() bool {
	if !t.closeText() || !t.closeReasoning() {
		return false
	}
	for _, idx := range t.indexes() {
		if b := t.blocks[idx]; b.typ == domain.BlockToolUse && !t.finishCall(b) {
			return false
		}
	}
	return true
}

func (t *nativeTurn) indexes() []int {
	idx := make([]int, 0, len(t.blocks))
	for i := range t.blocks {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// assistantBlocks returns the turn's content in provider order.
func (t *nativeTurn) assistantBlocks() []domain.ContentBlock {
	var blocks []domain.ContentBlock
	for _, idx := range t.indexes() {
		b := t.blocks[idx]
		switch b.typ {
		case domain.BlockThinking:
			blocks = append(blocks, domain.ContentBlock{
				Type:      domain.BlockThinking,
				Thinking:  b.thinking.String(),
				Signature: b.signature.String(),
			})
		case domain.BlockText:
			if b.text.Len() == 0 {
				continue
			}
			blocks = append(blocks, domain.ContentBlock{Type: domain.BlockText, Text: b.text.String()})
		case domain.BlockToolUse:
			blocks = append(blocks, domain.ContentBlock{
				Type:      domain.BlockToolUse,
				ToolUseID: b.toolID,
				ToolName:  b.toolName,
				Input:     parseToolInput(b.input.String()),
			})
		}
	}
	return blocks
}

// parseToolInput returns raw as compact JSON when it is an object, else {}.
func parseToolInput(raw string) json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &obj); err != nil || obj == nil {
		return json.RawMessage(`{}`)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return json.RawMessage(`{}`)
	}
	return buf.Bytes()
}

func isErrorPayload(output json.RawMessage) bool {
	var payload struct {
		Error *string `json:"error"`
	}
	return json.Unmarshal(output, &payload) == nil && payload.Error != nil
}

// toTurns splits system messages off and maps the rest to text turns.
func toTurns(msgs []domain.Message) (string, []domain.Turn) {
	var system []string
	turns := make([]domain.Turn, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == domain.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, domain.Turn{
			Role:   m.Role,
			Blocks: []domain.ContentBlock{{Type: domain.BlockText, Text: m.Content}},
		})
	}
	return strings.Join(system, "\n\n"), turns
}
