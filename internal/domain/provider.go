package domain

import (
	"context"
	"encoding/json"
)

// BlockType identifies a content block of a native conversation turn.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockThinking   BlockType = "thinking"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// StopReasonToolUse is the stop reason of a turn that awaits tool results.
const StopReasonToolUse = "tool_use"

// ContentBlock is one block of a native conversation turn.
type ContentBlock struct {
	Type BlockType `json:"type"`

	Text      string `json:"text,omitempty"`
	Thinking  string `json:"thinking,omitempty"`
	Signature string `json:"signature,omitempty"`

	// tool_use
	ToolUseID string          `json:"tool_use_id,omitempty"`
	ToolName  string          `json:"tool_name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`

	// tool_result (ToolUseID references the originating call)
	Content string `json:"content,omitempty"`
	IsError bool   `json:"is_error,omitempty"`
}

// Turn is one role-tagged entry of a native conversation.
type Turn struct {
	Role   string         `json:"role"`
	Blocks []ContentBlock `json:"blocks"`
}

// NativeRequest is one streaming call to a provider with first-class tool use.
type NativeRequest struct {
	Credential     string
	Model          string
	System         string
	Turns          []Turn
	Tools          []ToolSchema
	MaxTokens      int
	ThinkingBudget int
}

// ProviderEventKind discriminates ProviderEvent.
type ProviderEventKind int

const (
	ProviderBlockStart ProviderEventKind = iota + 1
	ProviderTextDelta
	ProviderThinkingDelta
	ProviderSignatureDelta
	ProviderInputJSONDelta
	ProviderBlockStop
	ProviderMessageDelta
	ProviderMessageStop
	ProviderFailure
)

// ProviderEvent is a single event of a native provider stream.
type ProviderEvent struct {
	Kind  ProviderEventKind
	Index int

	// ProviderBlockStart
	Block    BlockType
	ToolID   string
	ToolName string

	// text, thinking, signature or partial JSON fragment
	Delta string

	// ProviderMessageDelta
	StopReason string

	// ProviderFailure
	Err error
}

// NativeStreamer is a provider whose API streams structured tool-use events.
type NativeStreamer interface {
	Name() string
	// StreamMessages opens one provider stream. The channel is closed when the
	// stream ends or ctx is cancelled; mid-stream failures arrive as ProviderFailure.
	StreamMessages(ctx context.Context, req NativeRequest) (<-chan ProviderEvent, error)
}

// TextRequest is one streaming call to a plain-text provider.
type TextRequest struct {
	Credential string
	Model      string
	Messages   []Message
}

// TextChunk is one fragment of a plain-text stream. Err marks a failure;
// no chunks follow it.
type TextChunk struct {
	Text string
	Err  error
}

// TextStreamer is a provider that only streams plain text.
type TextStreamer interface {
	Name() string
	StreamText(ctx context.Context, req TextRequest) (<-chan TextChunk, error)
}
