package gateway

import (
	"net/http"
	"strings"

	"genui-gateway/internal/domain"
)

// toggleRequest is the body of POST /mcp/servers/toggle.
type toggleRequest struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

func (s *Server) handleMCPList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"servers": s.deps.MCP.List()})
}

func (s *Server) handleMCPToggle(w http.ResponseWriter, r *http.Request) {
	s.limitBody(w, r)
	var req toggleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.deps.Logger, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, s.deps.Logger, domain.NewDomainError("gateway.mcpToggle", domain.ErrInvalidInput, "name is required"))
		return
	}

	if !s.deps.MCP.SetEnabled(name, req.Enabled) {
		writeError(w, s.deps.Logger, serverNotFound("gateway.mcpToggle", name))
		return
	}
	s.deps.Logger.Info("mcp server toggled", "server", name, "enabled", req.Enabled)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"name":    name,
		"enabled": req.Enabled,
	})
}

func (s *Server) handleMCPGet(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	info, ok := s.deps.MCP.Get(name)
	if !ok {
		writeError(w, s.deps.Logger, serverNotFound("gateway.mcpGet", name))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleMCPTools(w http.ResponseWriter, _ *http.Request) {
	tools := s.deps.MCP.EnabledTools()
	if tools == nil {
		tools = []domain.FunctionTool{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": tools})
}

func serverNotFound(op, name string) error {
	return domain.NewSubSystemError("mcp", op, domain.ErrNotFound, "MCP server not found: "+name)
}
