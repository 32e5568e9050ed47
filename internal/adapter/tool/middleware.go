package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"genui-gateway/internal/adapter/uitree"
	"genui-gateway/internal/domain"
	"genui-gateway/internal/infra/tracer"
)

// TreeBuilder renders a UI tree from decoded tool input.
type TreeBuilder[P any] func(ctx context.Context, span trace.Span, params P) (uitree.Tree, error)

// Render decodes raw into P, runs build inside a "tool.execute" span and
// marshals the tree into the result. Bad input, build failures and a root
// with no element are reported as error results, not Go errors.
func Render[P any](ctx context.Context, name string, logger *slog.Logger, raw json.RawMessage, build TreeBuilder[P]) (*domain.ToolResult, error) {
	ctx, span := tracer.StartSpan(ctx, "tool.execute",
		trace.WithAttributes(tracer.StringAttr("tool.name", name)),
	)
	defer span.End()

	var p P
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			tracer.RecordError(span, err)
			return ErrResult("invalid params: %v", err)
		}
	}

	tree, err := build(ctx, span, p)
	if err != nil {
		tracer.RecordError(span, err)
		logger.Warn("ui tool failed", "tool", name, "error", err)
		return ErrResult("%v", err)
	}
	if _, ok := tree.Elements[tree.Root]; !ok {
		err := fmt.Errorf("tree root %q has no element", tree.Root)
		tracer.RecordError(span, err)
		return ErrResult("%v", err)
	}

	data, err := json.Marshal(tree)
	if err != nil {
		tracer.RecordError(span, err)
		return ErrResult("failed to format response: %v", err)
	}
	span.SetAttributes(
		tracer.StringAttr("ui.root", tree.Root),
		tracer.IntAttr("ui.elements", len(tree.Elements)),
	)
	tracer.SetOK(span)
	return &domain.ToolResult{Content: string(data)}, nil
}

// ErrResult creates an error ToolResult.
func ErrResult(format string, args ...any) (*domain.ToolResult, error) {
	return &domain.ToolResult{
		IsError: true,
		Content: fmt.Sprintf(format, args...),
	}, nil
}

// errorPayload renders msg as the catalog's {"error": ...} result document.
func errorPayload(msg string) json.RawMessage {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return data
}
