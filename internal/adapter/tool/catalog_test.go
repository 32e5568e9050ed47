package tool

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genui-gateway/internal/domain"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewDefaultCatalog(nopLogger())
	require.NoError(t, err)
	return c
}

func TestCatalogNamesSorted(t *testing.T) {
	c := newTestCatalog(t)

	want := []string{"show_chart", "show_data_table", "show_document", "show_filter_panel", "show_metrics"}
	assert.Equal(t, want, c.Names())

	schemas := c.Schemas()
	require.Len(t, schemas, len(want))
	for i, s := range schemas {
		assert.Equal(t, want[i], s.Name)
		assert.NotEmpty(t, s.Description)
		assert.True(t, json.Valid(s.Parameters), "schema for %s is not valid JSON", s.Name)
	}
}

func TestCatalogHas(t *testing.T) {
	c := newTestCatalog(t)
	assert.True(t, c.Has("show_chart"))
	assert.False(t, c.Has("delete_everything"))
}

func TestCatalogDuplicateRegister(t *testing.T) {
	c := NewCatalog(nopLogger())
	require.NoError(t, c.Register(&stubTool{name: "x", result: &domain.ToolResult{Content: "{}"}}))
	assert.Error(t, c.Register(&stubTool{name: "x"}))
}

func TestCatalogGetNotFound(t *testing.T) {
	c := NewCatalog(nopLogger())
	_, err := c.Get("missing")
	assert.True(t, errors.Is(err, domain.ErrToolNotFound))
}

func TestCatalogExecuteUnknownTool(t *testing.T) {
	c := newTestCatalog(t)
	got := c.Execute(context.Background(), "nope", json.RawMessage(`{}`))
	assert.JSONEq(t, `{"error":"Unknown tool: nope"}`, string(got))
}

func TestCatalogExecuteDeterministic(t *testing.T) {
	c := newTestCatalog(t)
	input := json.RawMessage(`{"data_type":"users"}`)

	first := c.Execute(context.Background(), "show_data_table", input)
	for i := 0; i < 10; i++ {
		again := c.Execute(context.Background(), "show_data_table", input)
		require.Equal(t, string(first), string(again), "run %d differs", i)
	}
	assert.NotContains(t, string(first), `"error"`)
}

func TestCatalogExecuteSchemaViolation(t *testing.T) {
	c := newTestCatalog(t)

	got := c.Execute(context.Background(), "show_chart", json.RawMessage(`{"chart_type":"radar"}`))

	var payload map[string]string
	require.NoError(t, json.Unmarshal(got, &payload))
	assert.True(t, strings.HasPrefix(payload["error"], "invalid input for show_chart"), payload["error"])
}

func TestCatalogExecuteNonJSONResult(t *testing.T) {
	c := NewCatalog(nopLogger())
	require.NoError(t, c.Register(&stubTool{name: "broken", result: &domain.ToolResult{Content: "not json"}}))

	got := c.Execute(context.Background(), "broken", nil)
	assert.JSONEq(t, `{"error":"tool returned malformed output"}`, string(got))
}
