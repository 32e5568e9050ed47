package tool

import "genui-gateway/internal/adapter/uitree"

// Fixed sample data backing the UI tools. Values never change at runtime so
// identical tool input always renders an identical tree.

var sampleColumns = map[string][]uitree.Column{
	"users": {
		{Key: "name", Label: "Name"},
		{Key: "email", Label: "Email"},
		{Key: "role", Label: "Role"},
		{Key: "status", Label: "Status"},
	},
	"products": {
		{Key: "name", Label: "Product"},
		{Key: "category", Label: "Category"},
		{Key: "price", Label: "Price", Format: "currency"},
		{Key: "stock", Label: "Stock", Format: "number"},
	},
	"orders": {
		{Key: "id", Label: "Order"},
		{Key: "customer", Label: "Customer"},
		{Key: "total", Label: "Total", Format: "currency"},
		{Key: "status", Label: "Status"},
	},
}

var sampleRows = map[string][]map[string]any{
	"users": {
		{"name": "Alice Johnson", "email": "alice@example.com", "role": "Admin", "status": "active"},
		{"name": "Bob Smith", "email": "bob@example.com", "role": "Editor", "status": "active"},
		{"name": "Carol White", "email": "carol@example.com", "role": "Viewer", "status": "inactive"},
		{"name": "David Brown", "email": "david@example.com", "role": "Editor", "status": "active"},
	},
	"products": {
		{"name": "Wireless Mouse", "category": "Electronics", "price": 29.99, "stock": 150},
		{"name": "Standing Desk", "category": "Furniture", "price": 499.0, "stock": 12},
		{"name": "USB-C Hub", "category": "Electronics", "price": 49.5, "stock": 87},
		{"name": "Desk Lamp", "category": "Furniture", "price": 35.0, "stock": 64},
	},
	"orders": {
		{"id": "ORD-1001", "customer": "Alice Johnson", "total": 129.97, "status": "shipped"},
		{"id": "ORD-1002", "customer": "Bob Smith", "total": 499.0, "status": "processing"},
		{"id": "ORD-1003", "customer": "Carol White", "total": 84.5, "status": "delivered"},
	},
}

var sampleSeries = map[string][]uitree.DataPoint{
	"sales": {
		{Label: "Jan", Value: 4200},
		{Label: "Feb", Value: 3800},
		{Label: "Mar", Value: 5100},
		{Label: "Apr", Value: 4700},
		{Label: "May", Value: 6200},
		{Label: "Jun", Value: 5900},
	},
	"traffic": {
		{Label: "Mon", Value: 1200},
		{Label: "Tue", Value: 1450},
		{Label: "Wed", Value: 1380},
		{Label: "Thu", Value: 1620},
		{Label: "Fri", Value: 1510},
	},
	"categories": {
		{Label: "Electronics", Value: 45, Color: "#3b82f6"},
		{Label: "Furniture", Value: 30, Color: "#10b981"},
		{Label: "Office", Value: 25, Color: "#f59e0b"},
	},
}

type sampleMetric struct {
	label      string
	value      any
	format     string
	trend      string
	trendValue string
}

var sampleMetrics = map[string][]sampleMetric{
	"sales": {
		{"Revenue", 48250, "currency", "up", "+12.5%"},
		{"Orders", 1284, "number", "up", "+8.2%"},
		{"Avg. Order", 37.58, "currency", "down", "-2.1%"},
		{"Conversion", 3.4, "percent", "neutral", "0.0%"},
	},
	"traffic": {
		{"Visitors", 18432, "number", "up", "+5.4%"},
		{"Page Views", 64120, "number", "up", "+9.8%"},
		{"Bounce Rate", 42.1, "percent", "down", "-3.2%"},
		{"Session", "3m 12s", "text", "neutral", ""},
	},
	"system": {
		{"CPU", 37, "percent", "neutral", ""},
		{"Memory", 62, "percent", "up", "+4%"},
		{"Uptime", 99.98, "percent", "neutral", ""},
		{"Requests/s", 842, "number", "up", "+11%"},
	},
}

var sampleFilters = map[string][]uitree.Filter{
	"users": {
		{ID: "name", Label: "Name", Type: "text", Placeholder: "Search by name..."},
		{ID: "role", Label: "Role", Type: "select", Options: []uitree.Option{
			{Label: "Admin", Value: "admin"},
			{Label: "Editor", Value: "editor"},
			{Label: "Viewer", Value: "viewer"},
		}},
		{ID: "status", Label: "Status", Type: "select", Options: []uitree.Option{
			{Label: "Active", Value: "active"},
			{Label: "Inactive", Value: "inactive"},
		}},
		{ID: "created_after", Label: "Created After", Type: "date"},
	},
	"products": {
		{ID: "name", Label: "Product", Type: "text", Placeholder: "Search products..."},
		{ID: "category", Label: "Category", Type: "select", Options: []uitree.Option{
			{Label: "Electronics", Value: "electronics"},
			{Label: "Furniture", Value: "furniture"},
		}},
		{ID: "max_price", Label: "Max Price", Type: "number"},
		{ID: "in_stock", Label: "In Stock", Type: "checkbox"},
	},
	"orders": {
		{ID: "customer", Label: "Customer", Type: "text", Placeholder: "Search customers..."},
		{ID: "status", Label: "Status", Type: "select", Options: []uitree.Option{
			{Label: "Processing", Value: "processing"},
			{Label: "Shipped", Value: "shipped"},
			{Label: "Delivered", Value: "delivered"},
		}},
		{ID: "placed", Label: "Placed", Type: "dateRange"},
	},
}

type sampleDocument struct {
	title    string
	status   string
	sections []uitree.Section
	metadata map[string]string
}

var sampleDocuments = map[string]sampleDocument{
	"invoice": {
		title:  "Invoice #INV-2024-001",
		status: "final",
		sections: []uitree.Section{
			{Heading: "Bill To", Content: "Acme Corp\n123 Main St\nSpringfield"},
			{Heading: "Items", Content: "Consulting - $1,200\nSupport plan - $300", Type: "list"},
			{Heading: "Total", Content: "$1,500.00"},
			{Content: "Authorized Signature", Type: "signature"},
		},
		metadata: map[string]string{"Date": "2024-01-15", "Due": "2024-02-15"},
	},
	"report": {
		title:  "Quarterly Performance Report",
		status: "draft",
		sections: []uitree.Section{
			{Heading: "Summary", Content: "Revenue grew 12.5% quarter over quarter."},
			{Heading: "Highlights", Content: "New enterprise customers\nLower churn\nFaster onboarding", Type: "list"},
			{Heading: "Outlook", Content: "Growth is expected to continue into the next quarter."},
		},
		metadata: map[string]string{"Quarter": "Q1 2024", "Author": "Finance"},
	},
	"letter": {
		title:  "Welcome Letter",
		status: "pending",
		sections: []uitree.Section{
			{Content: "Dear Customer,"},
			{Content: "Thank you for joining us. We are glad to have you on board."},
			{Content: "Customer Success Team", Type: "signature"},
		},
		metadata: map[string]string{"Date": "2024-01-15"},
	},
}
