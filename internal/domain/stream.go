package domain

import "encoding/json"

// StreamEvent is one event of the UI message stream. The set of
// implementations is closed: only the types in this file satisfy it.
type StreamEvent interface {
	streamEvent()
}

// MessageStart opens the assistant message.
type MessageStart struct {
	MessageID string
}

// ReasoningStart opens a reasoning stream.
type ReasoningStart struct {
	ID string
}

// ReasoningDelta carries a reasoning fragment.
type ReasoningDelta struct {
	ID    string
	Delta string
}

// ReasoningEnd closes a reasoning stream.
type ReasoningEnd struct {
	ID string
}

// TextStart opens a text stream.
type TextStart struct {
	ID string
}

// TextDelta carries a text fragment.
type TextDelta struct {
	ID    string
	Delta string
}

// TextEnd closes a text stream.
type TextEnd struct {
	ID string
}

// ToolInputStart announces a tool call whose input is about to stream.
type ToolInputStart struct {
	ToolCallID string
	ToolName   string
}

// ToolInputDelta is a raw partial JSON fragment of a tool call's input.
// Concatenating all deltas of one call in order yields the full input text.
type ToolInputDelta struct {
	ToolCallID     string
	InputTextDelta string
}

// ToolInputAvailable carries the parsed input. No further deltas follow for the call.
type ToolInputAvailable struct {
	ToolCallID string
	ToolName   string
	Input      json.RawMessage
}

// ToolOutputAvailable carries the tool result payload.
type ToolOutputAvailable struct {
	ToolCallID string
	Output     json.RawMessage
}

// Finish ends a successful message.
type Finish struct{}

// StreamError ends a message with an in-band error.
type StreamError struct {
	ErrorText string
}

// Done is the out-of-band terminal marker. It follows exactly one Finish or StreamError.
type Done struct{}

func (MessageStart) streamEvent()        {}
func (ReasoningStart) streamEvent()      {}
func (ReasoningDelta) streamEvent()      {}
func (ReasoningEnd) streamEvent()        {}
func (TextStart) streamEvent()           {}
func (TextDelta) streamEvent()           {}
func (TextEnd) streamEvent()             {}
func (ToolInputStart) streamEvent()      {}
func (ToolInputDelta) streamEvent()      {}
func (ToolInputAvailable) streamEvent()  {}
func (ToolOutputAvailable) streamEvent() {}
func (Finish) streamEvent()              {}
func (StreamError) streamEvent()         {}
func (Done) streamEvent()                {}
