package completion

import "genui-gateway/internal/domain"

// Chunk is one chat.completion.chunk document as re-emitted to clients.
type Chunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []ChunkChoice `json:"choices"`
}

// ChunkChoice is the single choice of a Chunk.
type ChunkChoice struct {
	Index        int        `json:"index"`
	Delta        ChunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

// ChunkDelta carries either content or tool calls.
type ChunkDelta struct {
	Content   string          `json:"content,omitempty"`
	ToolCalls []ChunkToolCall `json:"tool_calls,omitempty"`
}

// ChunkToolCall is one streamed tool call fragment.
type ChunkToolCall struct {
	Index    int               `json:"index"`
	ID       *string           `json:"id"`
	Type     string            `json:"type"`
	Function ChunkToolFunction `json:"function"`
}

// ChunkToolFunction is the function part of a ChunkToolCall. Fields are
// null when the fragment does not carry them.
type ChunkToolFunction struct {
	Name      *string `json:"name"`
	Arguments *string `json:"arguments"`
}

// Frames maps an upstream chunk to the documents sent downstream: one for
// content and one per tool call fragment. Chunks with neither yield nothing.
func Frames(c domain.CompletionChunk) []Chunk {
	var out []Chunk
	base := func(delta ChunkDelta) Chunk {
		return Chunk{
			ID:      c.ID,
			Object:  "chat.completion.chunk",
			Created: c.Created,
			Model:   c.Model,
			Choices: []ChunkChoice{{Index: 0, Delta: delta, FinishReason: c.FinishReason}},
		}
	}
	if c.Content != "" {
		out = append(out, base(ChunkDelta{Content: c.Content}))
	}
	for _, tc := range c.ToolCalls {
		out = append(out, base(ChunkDelta{ToolCalls: []ChunkToolCall{{
			Index: tc.Index,
			ID:    optional(tc.ID),
			Type:  "function",
			Function: ChunkToolFunction{
				Name:      optional(tc.Name),
				Arguments: optional(tc.Arguments),
			},
		}}}))
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
