package domain

import (
	"context"
	"encoding/json"
)

// ToolSchema describes a tool for the LLM function-calling protocol.
// The same value feeds the native tool attachment and the prompt instruction.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ToolCall represents an LLM's request to invoke a tool.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResult is the outcome of executing a tool. Content is a JSON document
// unless IsError is set, in which case it is a human-readable message.
type ToolResult struct {
	Content string `json:"content"`
	IsError bool   `json:"is_error"`
}

// Tool is the interface every catalog tool must implement.
type Tool interface {
	Name() string
	Description() string
	Schema() ToolSchema
	Execute(ctx context.Context, params json.RawMessage) (*ToolResult, error)
}

// ToolCatalog is the read-only tool set shared by all chat requests.
type ToolCatalog interface {
	// Schemas returns every tool schema in stable name order.
	Schemas() []ToolSchema
	// Has reports whether name is a catalog tool.
	Has(name string) bool
	// Execute runs a tool and always returns a JSON payload. Unknown tools
	// and failures yield {"error": "..."} instead of an error value.
	Execute(ctx context.Context, name string, input json.RawMessage) json.RawMessage
}

// FunctionTool is a tool in the OpenAI function-calling format.
type FunctionTool struct {
	Type     string         `json:"type"`
	Function FunctionSchema `json:"function"`
}

// FunctionSchema is the function body of a FunctionTool.
type FunctionSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}
