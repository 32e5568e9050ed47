package domain

import "strings"

// Role constants for message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// PartText is the only message part type the gateway understands.
const PartText = "text"

// MessagePart is one ordered fragment of an inbound chat message.
type MessagePart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ChatMessage is a message as sent by the browser client.
type ChatMessage struct {
	ID    string        `json:"id,omitempty"`
	Role  string        `json:"role"`
	Parts []MessagePart `json:"parts"`
}

// Flatten concatenates the text parts in order. Non-text parts are ignored.
func (m ChatMessage) Flatten() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Type == PartText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// Message is a flattened, role-tagged message handed to a driver.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// IsValidRole reports whether role is one of the accepted chat roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}
