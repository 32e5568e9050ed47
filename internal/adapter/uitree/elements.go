package uitree

// Column describes one table column.
type Column struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Format string `json:"format,omitempty"`
}

// DataPoint is one chart value.
type DataPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

// ListItem is one entry of a List element.
type ListItem struct {
	Label string `json:"label"`
	Value string `json:"value,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// Option is a select option of a filter.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Filter is one FilterPanel field. Type is text, select, date, dateRange,
// checkbox or number.
type Filter struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Type        string   `json:"type"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []Option `json:"options,omitempty"`
	Value       any      `json:"value,omitempty"`
}

// Section is one DocumentPreview section. Type is text, table, list or signature.
type Section struct {
	Heading string `json:"heading,omitempty"`
	Content string `json:"content"`
	Type    string `json:"type,omitempty"`
}

func element(key, typ string, props map[string]any, children ...string) Element {
	return Element{Key: key, Type: typ, Props: props, Children: children}
}

// setIf stores v under k unless v is the zero value.
func setIf[T comparable](props map[string]any, k string, v T) {
	var zero T
	if v != zero {
		props[k] = v
	}
}

// --- Layout ---

// Card is a titled container.
func Card(key, title, description string, children ...string) Element {
	props := map[string]any{}
	setIf(props, "title", title)
	setIf(props, "description", description)
	return element(key, "Card", props, children...)
}

// Grid lays children out in columns. Gap is sm, md or lg.
func Grid(key string, columns int, gap string, children ...string) Element {
	if columns <= 0 {
		columns = 2
	}
	if gap == "" {
		gap = "md"
	}
	return element(key, "Grid", map[string]any{"columns": columns, "gap": gap}, children...)
}

// Stack lays children out vertically or horizontally.
func Stack(key, direction, gap string, children ...string) Element {
	if direction == "" {
		direction = "vertical"
	}
	if gap == "" {
		gap = "md"
	}
	return element(key, "Stack", map[string]any{"direction": direction, "gap": gap}, children...)
}

// --- Data display ---

// MetricOpts are the optional Metric fields. Format is currency, percent,
// number or text; Trend is up, down or neutral.
type MetricOpts struct {
	Format     string
	Trend      string
	TrendValue string
}

// Metric shows a single labelled value.
func Metric(key, label string, value any, opts MetricOpts) Element {
	props := map[string]any{"label": label, "value": value}
	setIf(props, "format", opts.Format)
	setIf(props, "trend", opts.Trend)
	setIf(props, "trendValue", opts.TrendValue)
	return element(key, "Metric", props)
}

// Table renders rows under the given columns.
func Table(key string, columns []Column, data []map[string]any, striped bool) Element {
	return element(key, "Table", map[string]any{
		"columns": columns,
		"data":    data,
		"striped": striped,
	})
}

// Chart renders data points. Type is bar, line, pie or area.
func Chart(key, chartType string, data []DataPoint, title string, height int) Element {
	props := map[string]any{"type": chartType, "data": data}
	setIf(props, "title", title)
	setIf(props, "height", height)
	return element(key, "Chart", props)
}

// Progress renders a progress bar for value in [0,100].
func Progress(key string, value int, label string, showValue bool) Element {
	props := map[string]any{"value": value}
	setIf(props, "label", label)
	setIf(props, "showValue", showValue)
	return element(key, "Progress", props)
}

// Badge renders a short status label.
func Badge(key, text, variant string) Element {
	if variant == "" {
		variant = "default"
	}
	return element(key, "Badge", map[string]any{"text": text, "variant": variant})
}

// --- Interactive ---

// Button triggers the named frontend action.
func Button(key, label, actionName string, actionParams map[string]any, variant, size string) Element {
	action := map[string]any{"name": actionName}
	if len(actionParams) > 0 {
		action["params"] = actionParams
	}
	if variant == "" {
		variant = "default"
	}
	if size == "" {
		size = "default"
	}
	return element(key, "Button", map[string]any{
		"label":   label,
		"action":  action,
		"variant": variant,
		"size":    size,
	})
}

// --- Feedback ---

// Alert renders a callout.
func Alert(key, title, description, variant string) Element {
	if variant == "" {
		variant = "default"
	}
	props := map[string]any{"title": title, "variant": variant}
	setIf(props, "description", description)
	return element(key, "Alert", props)
}

// --- Content ---

// Text renders a paragraph. Variant is p, h1, h2, h3, muted or lead.
func Text(key, content, variant string) Element {
	if variant == "" {
		variant = "p"
	}
	return element(key, "Text", map[string]any{"content": content, "variant": variant})
}

// Image renders an image.
func Image(key, src, alt string, width, height int) Element {
	props := map[string]any{"src": src, "alt": alt}
	setIf(props, "width", width)
	setIf(props, "height", height)
	return element(key, "Image", props)
}

// Divider renders a separator.
func Divider(key, orientation string) Element {
	if orientation == "" {
		orientation = "horizontal"
	}
	return element(key, "Divider", map[string]any{"orientation": orientation})
}

// List renders items as a bullet or numbered list.
func List(key string, items []ListItem, ordered bool) Element {
	return element(key, "List", map[string]any{"items": items, "ordered": ordered})
}

// --- Forms and documents ---

// FilterPanel renders a set of filter inputs.
func FilterPanel(key string, filters []Filter, title string, active map[string]any) Element {
	props := map[string]any{"filters": filters}
	setIf(props, "title", title)
	if len(active) > 0 {
		props["activeFilters"] = active
	}
	return element(key, "FilterPanel", props)
}

// DocumentPreview renders a generated document. DocType is invoice, report,
// letter, contract, receipt or custom.
func DocumentPreview(key, title, docType string, sections []Section, status string, metadata map[string]string) Element {
	props := map[string]any{
		"title":    title,
		"type":     docType,
		"sections": sections,
	}
	setIf(props, "status", status)
	if len(metadata) > 0 {
		props["metadata"] = metadata
	}
	return element(key, "DocumentPreview", props)
}
