// Package mcp holds the MCP server registry used by the completions
// passthrough and exposes the UI tool catalog as an MCP endpoint.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"genui-gateway/internal/domain"
)

// ToolSeparator joins server and tool names in function-calling names.
const ToolSeparator = "__"

// Tool is one tool offered by a Server.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Server is an MCP server the gateway can attach to completions.
type Server interface {
	Name() string
	Description() string
	Tools() []Tool
	Execute(ctx context.Context, tool string, args json.RawMessage) (json.RawMessage, error)
}

// ServerInfo is the listing view of a registered server.
type ServerInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
	Tools       []Tool `json:"tools"`
}

// Registry tracks MCP servers and which of them are enabled.
type Registry struct {
	logger *slog.Logger

	mu      sync.RWMutex
	servers map[string]Server
	enabled map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:  logger,
		servers: make(map[string]Server),
		enabled: make(map[string]bool),
	}
}

// NewDefaultRegistry registers the built-in servers and enables those named.
// Unknown names are logged and skipped.
func NewDefaultRegistry(enabled []string, logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	for _, s := range DefaultServers() {
		r.Register(s)
	}
	for _, name := range enabled {
		if !r.SetEnabled(name, true) {
			logger.Warn("unknown mcp server in config", "server", name)
		}
	}
	return r
}

// Register adds or replaces a server. New servers start disabled.
func (r *Registry) Register(s Server) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.servers[s.Name()] = s
}

// Unregister removes a server.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.servers, name)
	delete(r.enabled, name)
}

// Get returns the info of one server.
func (r *Registry) Get(name string) (ServerInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.servers[name]
	if !ok {
		return ServerInfo{}, false
	}
	return r.info(s), true
}

// List returns every server sorted by name.
func (r *Registry) List() []ServerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ServerInfo, 0, len(r.servers))
	for _, name := range r.sortedNames() {
		out = append(out, r.info(r.servers[name]))
	}
	return out
}

func (r *Registry) info(s Server) ServerInfo {
	return ServerInfo{
		Name:        s.Name(),
		Description: s.Description(),
		Enabled:     r.enabled[s.Name()],
		Tools:       s.Tools(),
	}
}

func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.servers))
	for name := range r.servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetEnabled flips a server on or off. It returns false for unknown servers.
func (r *Registry) SetEnabled(name string, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.servers[name]; !ok {
		return false
	}
	r.enabled[name] = enabled
	r.logger.Info("mcp server toggled", "server", name, "enabled", enabled)
	return true
}

// EnabledTools returns the tools of all enabled servers.
func (r *Registry) EnabledTools() []domain.FunctionTool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for _, name := range r.sortedNames() {
		if r.enabled[name] {
			names = append(names, name)
		}
	}
	return r.toolsLocked(names)
}

// ToolsFor returns the tools of the named servers whether or not they are
// enabled, for a single request. Unknown names are skipped.
func (r *Registry) ToolsFor(names []string) []domain.FunctionTool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.toolsLocked(names)
}

func (r *Registry) toolsLocked(names []string) []domain.FunctionTool {
	var tools []domain.FunctionTool
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		s, ok := r.servers[name]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		for _, t := range s.Tools() {
			tools = append(tools, domain.FunctionTool{
				Type: "function",
				Function: domain.FunctionSchema{
					Name:        name + ToolSeparator + t.Name,
					Description: fmt.Sprintf("[%s] %s", name, t.Description),
					Parameters:  t.Parameters,
				},
			})
		}
	}
	return tools
}

// Execute runs a tool by its full "<server>__<tool>" name on an enabled server.
func (r *Registry) Execute(ctx context.Context, fullName string, args json.RawMessage) (json.RawMessage, error) {
	const op = "mcp.Registry.Execute"
	serverName, toolName, ok := strings.Cut(fullName, ToolSeparator)
	if !ok {
		return nil, domain.NewDomainError(op, domain.ErrInvalidInput, "Invalid tool name format: "+fullName)
	}

	r.mu.RLock()
	s, known := r.servers[serverName]
	enabled := r.enabled[serverName]
	r.mu.RUnlock()

	switch {
	case !known:
		return nil, domain.NewDomainError(op, domain.ErrNotFound, "Unknown server: "+serverName)
	case !enabled:
		return nil, domain.NewDomainError(op, domain.ErrDisabled, "Server is not enabled: "+serverName)
	}
	return s.Execute(ctx, toolName, args)
}
