package domain

import (
	"context"
	"encoding/json"
)

// CompletionMessage is an OpenAI-style chat message. Content is either a
// string or a list of content parts and is forwarded untouched.
type CompletionMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// CompletionRequest is an OpenAI-compatible chat completion request.
type CompletionRequest struct {
	Model       string
	Messages    []CompletionMessage
	Temperature *float64
	MaxTokens   int
	Tools       []FunctionTool
}

// CompletionToolCall is a streamed tool call fragment.
type CompletionToolCall struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

// CompletionChunk is one streamed completion delta.
type CompletionChunk struct {
	ID           string
	Model        string
	Created      int64
	Content      string
	ToolCalls    []CompletionToolCall
	FinishReason *string
	Err          error
}

// CompletionProvider is an OpenAI-compatible upstream.
type CompletionProvider interface {
	Name() string
	// Complete returns the upstream completion document as-is.
	Complete(ctx context.Context, req CompletionRequest) (json.RawMessage, error)
	StreamCompletion(ctx context.Context, req CompletionRequest) (<-chan CompletionChunk, error)
}
