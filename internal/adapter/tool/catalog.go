package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"genui-gateway/internal/domain"
	"genui-gateway/internal/infra/tracer"
)

// Catalog holds the named UI tools offered to every chat request.
// It is populated at startup and read concurrently afterwards.
type Catalog struct {
	mu     sync.RWMutex
	tools  map[string]domain.Tool
	logger *slog.Logger
}

var _ domain.ToolCatalog = (*Catalog)(nil)

// NewCatalog creates an empty catalog.
func NewCatalog(logger *slog.Logger) *Catalog {
	return &Catalog{
		tools:  make(map[string]domain.Tool),
		logger: logger,
	}
}

// NewDefaultCatalog creates a catalog holding the built-in UI tools.
func NewDefaultCatalog(logger *slog.Logger) (*Catalog, error) {
	c := NewCatalog(logger)
	for _, t := range DefaultTools(logger) {
		if err := c.Register(t); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds a tool wrapped with schema validation. Returns error if the
// name is already registered or the tool's schema does not compile.
func (c *Catalog) Register(t domain.Tool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := t.Name()
	if _, exists := c.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}

	wrapped, err := WithSchemaValidation(t)
	if err != nil {
		return err
	}

	c.tools[name] = wrapped
	return nil
}

// Get retrieves a tool by name.
func (c *Catalog) Get(name string) (domain.Tool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.tools[name]
	if !ok {
		return nil, domain.NewDomainError("Catalog.Get", domain.ErrToolNotFound, name)
	}
	return t, nil
}

// Has implements domain.ToolCatalog.
func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.tools[name]
	return ok
}

// Names returns the tool names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.tools))
	for name := range c.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schemas implements domain.ToolCatalog.
func (c *Catalog) Schemas() []domain.ToolSchema {
	names := c.Names()

	c.mu.RLock()
	defer c.mu.RUnlock()

	schemas := make([]domain.ToolSchema, 0, len(names))
	for _, name := range names {
		if t, ok := c.tools[name]; ok {
			schemas = append(schemas, t.Schema())
		}
	}
	return schemas
}

// Execute implements domain.ToolCatalog. It never fails: unknown tools and
// tool errors are reported as {"error": "..."} payloads.
func (c *Catalog) Execute(ctx context.Context, name string, input json.RawMessage) json.RawMessage {
	ctx, span := tracer.StartSpan(ctx, "tool.execute",
		trace.WithAttributes(tracer.StringAttr("tool.name", name)),
	)
	defer span.End()

	t, err := c.Get(name)
	if err != nil {
		tracer.RecordError(span, err)
		c.logger.Warn("unknown tool requested", "tool", name)
		return errorPayload("Unknown tool: " + name)
	}

	result, err := t.Execute(ctx, input)
	if err != nil {
		tracer.RecordError(span, err)
		c.logger.Warn("tool execution failed", "tool", name, "error", err)
		return errorPayload(err.Error())
	}
	if result.IsError {
		tracer.RecordError(span, fmt.Errorf("%s", result.Content))
		c.logger.Debug("tool returned error", "tool", name, "error", result.Content)
		return errorPayload(result.Content)
	}
	if !json.Valid([]byte(result.Content)) {
		tracer.RecordError(span, domain.ErrToolFailure)
		return errorPayload("tool returned malformed output")
	}

	tracer.SetOK(span)
	return json.RawMessage(result.Content)
}
