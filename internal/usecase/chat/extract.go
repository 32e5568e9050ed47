package chat

import (
	"bytes"
	"encoding/json"
	"strings"

	"genui-gateway/internal/domain"
)

// Call-opening markers, tolerant of one space after the brace.
var toolCallMarkers = []string{`{"tool_call"`, `{ "tool_call"`}

const fence = "```"

// ExtractToolCall detects a prompt-level tool call in text. The call must
// have the shape {"tool_call":{"name":"<tool>","input":{...}}} and name a
// tool known reports as valid. Anything else yields nil. ID is left empty.
//
// Brace matching counts every '{' and '}', including those inside JSON
// string literals, so a brace in a string value ends or extends the span.
func ExtractToolCall(text string, known func(string) bool) *domain.ToolCall {
	s := stripFence(strings.TrimSpace(text))

	start := markerIndex(s)
	if start < 0 {
		return nil
	}
	end := matchingBrace(s, start)
	if end < 0 {
		return nil
	}

	var envelope struct {
		ToolCall *struct {
			Name  string          `json:"name"`
			Input json.RawMessage `json:"input"`
		} `json:"tool_call"`
	}
	if err := json.Unmarshal([]byte(s[start:end]), &envelope); err != nil {
		return nil
	}
	call := envelope.ToolCall
	if call == nil || call.Name == "" || known == nil || !known(call.Name) {
		return nil
	}

	return &domain.ToolCall{Name: call.Name, Input: normalizeInput(call.Input)}
}

// containsMarker reports whether s holds a call-opening marker.
func containsMarker(s string) bool {
	return markerIndex(s) >= 0
}

func markerIndex(s string) int {
	idx := -1
	for _, m := range toolCallMarkers {
		if i := strings.Index(s, m); i >= 0 && (idx < 0 || i < idx) {
			idx = i
		}
	}
	return idx
}

// stripFence removes a leading fence line and a trailing fence line.
func stripFence(s string) string {
	if !strings.HasPrefix(s, fence) {
		return s
	}
	lines := strings.Split(s, "\n")[1:]
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == fence {
		lines = lines[:n-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// matchingBrace returns the index just past the brace closing the one at
// start, or -1 if the object is unterminated.
func matchingBrace(s string, start int) int {
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

// normalizeInput returns raw compacted if it is a JSON object, else {}.
func normalizeInput(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return json.RawMessage(`{}`)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return json.RawMessage(`{}`)
	}
	return buf.Bytes()
}
