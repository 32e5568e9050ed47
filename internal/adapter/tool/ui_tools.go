package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"genui-gateway/internal/adapter/uitree"
	"genui-gateway/internal/domain"
	"genui-gateway/internal/infra/tracer"
)

// DefaultTools returns the built-in UI tools.
func DefaultTools(logger *slog.Logger) []domain.Tool {
	return []domain.Tool{
		NewChartTool(logger),
		NewDataTableTool(logger),
		NewMetricsTool(logger),
		NewDocumentTool(logger),
		NewFilterPanelTool(logger),
	}
}

func schemaOf(t domain.Tool, params string) domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  json.RawMessage(params),
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// --- show_chart ---

// ChartTool renders sample data as a chart inside a card.
type ChartTool struct {
	logger *slog.Logger
}

func NewChartTool(logger *slog.Logger) *ChartTool { return &ChartTool{logger: logger} }

type chartParams struct {
	ChartType string `json:"chart_type"`
	Title     string `json:"title"`
	DataType  string `json:"data_type"`
}

func (t *ChartTool) Name() string { return "show_chart" }
func (t *ChartTool) Description() string {
	return "Display a chart (bar, line, pie or area) of sample business data."
}

func (t *ChartTool) Schema() domain.ToolSchema {
	return schemaOf(t, `{
		"type": "object",
		"properties": {
			"chart_type": {"type": "string", "enum": ["bar", "line", "pie", "area"], "description": "Kind of chart to draw"},
			"title": {"type": "string", "description": "Chart title"},
			"data_type": {"type": "string", "enum": ["sales", "traffic", "categories"], "description": "Which data series to plot"}
		},
		"required": ["chart_type"]
	}`)
}

func (t *ChartTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Render(ctx, "show_chart", t.logger, params,
		func(_ context.Context, span trace.Span, p chartParams) (uitree.Tree, error) {
			dataType := p.DataType
			if dataType == "" {
				dataType = "sales"
				if p.ChartType == "pie" {
					dataType = "categories"
				}
			}
			title := p.Title
			if title == "" {
				title = titleCase(dataType) + " Overview"
			}
			span.SetAttributes(
				tracer.StringAttr("chart.type", p.ChartType),
				tracer.StringAttr("chart.data_type", dataType),
			)

			return uitree.New("chart-card",
				uitree.Card("chart-card", title, "", "chart"),
				uitree.Chart("chart", p.ChartType, sampleSeries[dataType], "", 300),
			), nil
		})
}

// --- show_data_table ---

// DataTableTool renders a sample dataset as a table.
type DataTableTool struct {
	logger *slog.Logger
}

func NewDataTableTool(logger *slog.Logger) *DataTableTool { return &DataTableTool{logger: logger} }

type dataTableParams struct {
	DataType string `json:"data_type"`
	Title    string `json:"title"`
}

func (t *DataTableTool) Name() string { return "show_data_table" }
func (t *DataTableTool) Description() string {
	return "Display a table of sample users, products or orders."
}

func (t *DataTableTool) Schema() domain.ToolSchema {
	return schemaOf(t, `{
		"type": "object",
		"properties": {
			"data_type": {"type": "string", "enum": ["users", "products", "orders"], "description": "Dataset to show"},
			"title": {"type": "string", "description": "Table title"}
		},
		"required": ["data_type"]
	}`)
}

func (t *DataTableTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Render(ctx, "show_data_table", t.logger, params,
		func(_ context.Context, span trace.Span, p dataTableParams) (uitree.Tree, error) {
			rows := sampleRows[p.DataType]
			title := p.Title
			if title == "" {
				title = titleCase(p.DataType)
			}
			span.SetAttributes(tracer.IntAttr("table.rows", len(rows)))

			return uitree.New("table-card",
				uitree.Card("table-card", title, fmt.Sprintf("%d records", len(rows)), "data-table"),
				uitree.Table("data-table", sampleColumns[p.DataType], rows, true),
			), nil
		})
}

// --- show_metrics ---

// MetricsTool renders four KPI metrics in a grid.
type MetricsTool struct {
	logger *slog.Logger
}

func NewMetricsTool(logger *slog.Logger) *MetricsTool { return &MetricsTool{logger: logger} }

type metricsParams struct {
	Category string `json:"category"`
}

func (t *MetricsTool) Name() string { return "show_metrics" }
func (t *MetricsTool) Description() string {
	return "Display key metrics for sales, traffic or system health."
}

func (t *MetricsTool) Schema() domain.ToolSchema {
	return schemaOf(t, `{
		"type": "object",
		"properties": {
			"category": {"type": "string", "enum": ["sales", "traffic", "system"], "description": "Metric group, defaults to sales"}
		}
	}`)
}

func (t *MetricsTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Render(ctx, "show_metrics", t.logger, params,
		func(_ context.Context, _ trace.Span, p metricsParams) (uitree.Tree, error) {
			category := p.Category
			if category == "" {
				category = "sales"
			}

			metrics := sampleMetrics[category]
			b := uitree.NewBuilder()
			keys := make([]string, len(metrics))
			for i := range metrics {
				keys[i] = fmt.Sprintf("metric-%d", i+1)
			}
			b.Add(uitree.Card("metrics-card", titleCase(category)+" Metrics", "", "metrics-grid"))
			b.Add(uitree.Grid("metrics-grid", 2, "md", keys...))
			for i, m := range metrics {
				b.Add(uitree.Metric(keys[i], m.label, m.value, uitree.MetricOpts{
					Format:     m.format,
					Trend:      m.trend,
					TrendValue: m.trendValue,
				}))
			}
			return b.Build(), nil
		})
}

// --- show_document ---

// DocumentTool renders a sample generated document.
type DocumentTool struct {
	logger *slog.Logger
}

func NewDocumentTool(logger *slog.Logger) *DocumentTool { return &DocumentTool{logger: logger} }

type documentParams struct {
	DocType string `json:"doc_type"`
	Title   string `json:"title"`
}

func (t *DocumentTool) Name() string { return "show_document" }
func (t *DocumentTool) Description() string {
	return "Display a generated document preview such as an invoice, report or letter."
}

func (t *DocumentTool) Schema() domain.ToolSchema {
	return schemaOf(t, `{
		"type": "object",
		"properties": {
			"doc_type": {"type": "string", "enum": ["invoice", "report", "letter"], "description": "Document kind"},
			"title": {"type": "string", "description": "Document title"}
		},
		"required": ["doc_type"]
	}`)
}

func (t *DocumentTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Render(ctx, "show_document", t.logger, params,
		func(_ context.Context, _ trace.Span, p documentParams) (uitree.Tree, error) {
			doc := sampleDocuments[p.DocType]
			title := p.Title
			if title == "" {
				title = doc.title
			}
			return uitree.New("document-card",
				uitree.Card("document-card", "", "", "document"),
				uitree.DocumentPreview("document", title, p.DocType, doc.sections, doc.status, doc.metadata),
			), nil
		})
}

// --- show_filter_panel ---

// FilterPanelTool renders filter inputs for a dataset.
type FilterPanelTool struct {
	logger *slog.Logger
}

func NewFilterPanelTool(logger *slog.Logger) *FilterPanelTool {
	return &FilterPanelTool{logger: logger}
}

type filterPanelParams struct {
	DataType string `json:"data_type"`
}

func (t *FilterPanelTool) Name() string { return "show_filter_panel" }
func (t *FilterPanelTool) Description() string {
	return "Display a filter panel for users, products or orders."
}

func (t *FilterPanelTool) Schema() domain.ToolSchema {
	return schemaOf(t, `{
		"type": "object",
		"properties": {
			"data_type": {"type": "string", "enum": ["users", "products", "orders"], "description": "Dataset the filters apply to"}
		},
		"required": ["data_type"]
	}`)
}

func (t *FilterPanelTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Render(ctx, "show_filter_panel", t.logger, params,
		func(_ context.Context, _ trace.Span, p filterPanelParams) (uitree.Tree, error) {
			title := "Filter " + titleCase(p.DataType)
			return uitree.New("filter-card",
				uitree.Card("filter-card", title, "", "filters"),
				uitree.FilterPanel("filters", sampleFilters[p.DataType], "", nil),
			), nil
		})
}
