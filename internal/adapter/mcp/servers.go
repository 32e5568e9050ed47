package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"genui-gateway/internal/domain"
)

// placeholderServer answers every tool call with a fixed
// {"status":"placeholder"} document describing what it would have done.
type placeholderServer struct {
	name        string
	description string
	tools       []Tool
	results     map[string]func(args map[string]any) map[string]any
}

func (s *placeholderServer) Name() string        { return s.name }
func (s *placeholderServer) Description() string { return s.description }
func (s *placeholderServer) Tools() []Tool       { return s.tools }

func (s *placeholderServer) Execute(_ context.Context, tool string, raw json.RawMessage) (json.RawMessage, error) {
	result, ok := s.results[tool]
	if !ok {
		return nil, domain.NewDomainError("mcp."+s.name, domain.ErrToolNotFound, "Unknown tool: "+tool)
	}
	args := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, domain.NewDomainError("mcp."+s.name, domain.ErrInvalidInput, "arguments must be a JSON object")
		}
	}
	out := result(args)
	out["status"] = "placeholder"
	return json.Marshal(out)
}

// arg renders an argument for a placeholder message; missing values print as None.
func arg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return "None"
	}
	return fmt.Sprint(v)
}

// DefaultServers returns the built-in placeholder servers.
func DefaultServers() []Server {
	return []Server{filesystemServer(), webSearchServer(), calculatorServer()}
}

func filesystemServer() Server {
	return &placeholderServer{
		name:        "filesystem",
		description: "Read and write files on the local filesystem",
		tools: []Tool{
			{
				Name:        "read_file",
				Description: "Read the contents of a file",
				Parameters:  json.RawMessage(`{"type":"object","properties":{"path":{"type":"string","description":"The path to the file to read"}},"required":["path"]}`),
			},
			{
				Name:        "write_file",
				Description: "Write content to a file",
				Parameters:  json.RawMessage(`{"type":"object","properties":{"path":{"type":"string","description":"The path to the file to write"},"content":{"type":"string","description":"The content to write to the file"}},"required":["path","content"]}`),
			},
			{
				Name:        "list_directory",
				Description: "List contents of a directory",
				Parameters:  json.RawMessage(`{"type":"object","properties":{"path":{"type":"string","description":"The path to the directory to list"}},"required":["path"]}`),
			},
		},
		results: map[string]func(map[string]any) map[string]any{
			"read_file": func(a map[string]any) map[string]any {
				return map[string]any{"message": "Would read file: " + arg(a, "path")}
			},
			"write_file": func(a map[string]any) map[string]any {
				return map[string]any{"message": "Would write to file: " + arg(a, "path")}
			},
			"list_directory": func(a map[string]any) map[string]any {
				return map[string]any{"message": "Would list directory: " + arg(a, "path")}
			},
		},
	}
}

func webSearchServer() Server {
	return &placeholderServer{
		name:        "web_search",
		description: "Search the web and fetch web pages",
		tools: []Tool{
			{
				Name:        "search",
				Description: "Search the web for information",
				Parameters:  json.RawMessage(`{"type":"object","properties":{"query":{"type":"string","description":"The search query"},"num_results":{"type":"integer","description":"Number of results to return","default":5}},"required":["query"]}`),
			},
			{
				Name:        "fetch_url",
				Description: "Fetch the content of a web page",
				Parameters:  json.RawMessage(`{"type":"object","properties":{"url":{"type":"string","description":"The URL to fetch"}},"required":["url"]}`),
			},
		},
		results: map[string]func(map[string]any) map[string]any{
			"search": func(a map[string]any) map[string]any {
				return map[string]any{"message": "Would search for: " + arg(a, "query"), "results": []any{}}
			},
			"fetch_url": func(a map[string]any) map[string]any {
				return map[string]any{"message": "Would fetch URL: " + arg(a, "url"), "content": ""}
			},
		},
	}
}

func calculatorServer() Server {
	return &placeholderServer{
		name:        "calculator",
		description: "Perform mathematical calculations",
		tools: []Tool{
			{
				Name:        "calculate",
				Description: "Evaluate a mathematical expression",
				Parameters:  json.RawMessage(`{"type":"object","properties":{"expression":{"type":"string","description":"The mathematical expression to evaluate"}},"required":["expression"]}`),
			},
			{
				Name:        "convert_units",
				Description: "Convert between units",
				Parameters:  json.RawMessage(`{"type":"object","properties":{"value":{"type":"number","description":"The value to convert"},"from_unit":{"type":"string","description":"The source unit"},"to_unit":{"type":"string","description":"The target unit"}},"required":["value","from_unit","to_unit"]}`),
			},
		},
		results: map[string]func(map[string]any) map[string]any{
			"calculate": func(a map[string]any) map[string]any {
				return map[string]any{"message": "Would calculate: " + arg(a, "expression"), "result": nil}
			},
			"convert_units": func(a map[string]any) map[string]any {
				return map[string]any{
					"message": fmt.Sprintf("Would convert %s from %s to %s", arg(a, "value"), arg(a, "from_unit"), arg(a, "to_unit")),
					"result":  nil,
				}
			},
		},
	}
}
