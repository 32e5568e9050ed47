// Package uistream serializes domain stream events into the UI message
// stream protocol consumed by the chat frontend.
package uistream

import (
	"encoding/json"
	"fmt"

	"genui-gateway/internal/domain"
)

// HeaderStreamVersion marks a response as a UI message stream.
const HeaderStreamVersion = "x-vercel-ai-ui-message-stream"

var doneFrame = []byte("data: [DONE]\n\n")

type startWire struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
}

type idWire struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type deltaWire struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Delta string `json:"delta"`
}

type toolStartWire struct {
	Type       string `json:"type"`
	ToolCallID string `json:"toolCallId"`
	ToolName   string `json:"toolName"`
}

type toolDeltaWire struct {
	Type           string `json:"type"`
	ToolCallID     string `json:"toolCallId"`
	InputTextDelta string `json:"inputTextDelta"`
}

type toolInputWire struct {
	Type       string          `json:"type"`
	ToolCallID string          `json:"toolCallId"`
	ToolName   string          `json:"toolName"`
	Input      json.RawMessage `json:"input"`
}

type toolOutputWire struct {
	Type       string          `json:"type"`
	ToolCallID string          `json:"toolCallId"`
	Output     json.RawMessage `json:"output"`
}

type typeWire struct {
	Type string `json:"type"`
}

type errorWire struct {
	Type      string `json:"type"`
	ErrorText string `json:"errorText"`
}

// Payload returns the wire object for ev. Done has no JSON form on the SSE
// transport; it is rendered as {"type":"done"} for message-oriented transports.
func Payload(ev domain.StreamEvent) (any, error) {
	switch e := ev.(type) {
	case domain.MessageStart:
		return startWire{"start", e.MessageID}, nil
	case domain.ReasoningStart:
		return idWire{"reasoning-start", e.ID}, nil
	case domain.ReasoningDelta:
		return deltaWire{"reasoning-delta", e.ID, e.Delta}, nil
	case domain.ReasoningEnd:
		return idWire{"reasoning-end", e.ID}, nil
	case domain.TextStart:
		return idWire{"text-start", e.ID}, nil
	case domain.TextDelta:
		return deltaWire{"text-delta", e.ID, e.Delta}, nil
	case domain.TextEnd:
		return idWire{"text-end", e.ID}, nil
	case domain.ToolInputStart:
		return toolStartWire{"tool-input-start", e.ToolCallID, e.ToolName}, nil
	case domain.ToolInputDelta:
		return toolDeltaWire{"tool-input-delta", e.ToolCallID, e.InputTextDelta}, nil
	case domain.ToolInputAvailable:
		return toolInputWire{"tool-input-available", e.ToolCallID, e.ToolName, orEmptyObject(e.Input)}, nil
	case domain.ToolOutputAvailable:
		return toolOutputWire{"tool-output-available", e.ToolCallID, orEmptyObject(e.Output)}, nil
	case domain.Finish:
		return typeWire{"finish"}, nil
	case domain.StreamError:
		return errorWire{"error", e.ErrorText}, nil
	case domain.Done:
		return typeWire{"done"}, nil
	default:
		return nil, domain.NewDomainError("uistream.Payload", domain.ErrInvalidInput, fmt.Sprintf("unknown event %T", ev))
	}
}

// Encode renders ev as one SSE frame: "data: <json>\n\n", or the
// "data: [DONE]\n\n" terminator for Done.
func Encode(ev domain.StreamEvent) ([]byte, error) {
	if _, ok := ev.(domain.Done); ok {
		return doneFrame, nil
	}

	p, err := Payload(ev)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", ev, err)
	}

	frame := make([]byte, 0, len(body)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, body...)
	frame = append(frame, '\n', '\n')
	return frame, nil
}

func orEmptyObject(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}
	return raw
}
