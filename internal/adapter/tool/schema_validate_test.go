package tool

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"genui-gateway/internal/domain"
)

// stubTool is a minimal tool for testing schema validation.
type stubTool struct {
	name   string
	schema json.RawMessage
	result *domain.ToolResult
	calls  int
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub" }
func (s *stubTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        s.name,
		Description: "stub",
		Parameters:  s.schema,
	}
}
func (s *stubTool) Execute(_ context.Context, _ json.RawMessage) (*domain.ToolResult, error) {
	s.calls++
	return s.result, nil
}

const nameSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": "string", "enum": ["alice", "bob"]}
	},
	"required": ["name"]
}`

func TestSchemaValidation_ValidParams(t *testing.T) {
	inner := &stubTool{name: "test", schema: json.RawMessage(nameSchema), result: &domain.ToolResult{Content: "ok"}}

	wrapped, err := WithSchemaValidation(inner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := wrapped.Execute(context.Background(), json.RawMessage(`{"name":"alice"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", result.Content)
	}
	if result.Content != "ok" {
		t.Errorf("expected 'ok', got %q", result.Content)
	}
}

func TestSchemaValidation_MissingRequiredField(t *testing.T) {
	inner := &stubTool{name: "test", schema: json.RawMessage(nameSchema)}

	wrapped, err := WithSchemaValidation(inner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, params := range []string{`{}`, ``, `null`} {
		result, err := wrapped.Execute(context.Background(), json.RawMessage(params))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Errorf("params %q: expected error result", params)
		}
		if !strings.Contains(result.Content, "invalid input for test") {
			t.Errorf("params %q: content = %q", params, result.Content)
		}
	}
	if inner.calls != 0 {
		t.Errorf("inner called %d times, want 0", inner.calls)
	}
}

func TestSchemaValidation_EnumViolation(t *testing.T) {
	inner := &stubTool{name: "test", schema: json.RawMessage(nameSchema)}
	wrapped, _ := WithSchemaValidation(inner)

	result, _ := wrapped.Execute(context.Background(), json.RawMessage(`{"name":"mallory"}`))
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(result.Content, "/name") {
		t.Errorf("content %q should name the failing location", result.Content)
	}
}

func TestSchemaValidation_MalformedJSON(t *testing.T) {
	wrapped, _ := WithSchemaValidation(&stubTool{name: "test", schema: json.RawMessage(nameSchema)})

	result, _ := wrapped.Execute(context.Background(), json.RawMessage(`{"name":`))
	if !result.IsError || !strings.Contains(result.Content, "invalid JSON input") {
		t.Errorf("result = %+v", result)
	}
}

func TestSchemaValidation_NoSchemaPassthrough(t *testing.T) {
	inner := &stubTool{name: "plain", result: &domain.ToolResult{Content: "ok"}}

	wrapped, err := WithSchemaValidation(inner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wrapped != domain.Tool(inner) {
		t.Error("tool without schema should be returned unwrapped")
	}
}

func TestSchemaValidation_BadSchema(t *testing.T) {
	_, err := WithSchemaValidation(&stubTool{name: "bad", schema: json.RawMessage(`{"type": 12}`)})
	if err == nil {
		t.Fatal("expected compile error")
	}
}
