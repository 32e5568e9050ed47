package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"genui-gateway/internal/domain"
)

// RPCPath is where the catalog MCP endpoint is mounted.
const RPCPath = "/mcp/rpc"

// NewCatalogServer builds an MCP server offering every catalog tool. Tool
// results are returned as a single JSON text content; an {"error": ...}
// payload is flagged with IsError.
func NewCatalogServer(catalog domain.ToolCatalog, version string, logger *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("genui-gateway", version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	for _, schema := range catalog.Schemas() {
		name := schema.Name
		tool := mcp.NewToolWithRawSchema(name, schema.Description, schema.Parameters)
		s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			input, err := json.Marshal(req.GetRawArguments())
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			if string(input) == "null" {
				input = []byte(`{}`)
			}
			payload := catalog.Execute(ctx, name, input)
			logger.Debug("mcp tool call", "tool", name, "bytes", len(payload))
			if isErrorPayload(payload) {
				return mcp.NewToolResultError(string(payload)), nil
			}
			return mcp.NewToolResultText(string(payload)), nil
		})
	}
	return s
}

// NewCatalogHandler serves the catalog MCP server over streamable HTTP at RPCPath.
func NewCatalogHandler(s *server.MCPServer) *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(s,
		server.WithEndpointPath(RPCPath),
		server.WithStateLess(true),
	)
}

func isErrorPayload(payload json.RawMessage) bool {
	var probe struct {
		Error *string `json:"error"`
	}
	return json.Unmarshal(payload, &probe) == nil && probe.Error != nil
}
