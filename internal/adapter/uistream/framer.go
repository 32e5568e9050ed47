package uistream

import (
	"fmt"

	"genui-gateway/internal/domain"
)

type toolState int

const (
	toolStreaming toolState = iota + 1
	toolInputReady
	toolDone
)

type segmentKind int

const (
	segmentNone segmentKind = iota
	segmentText
	segmentReasoning
)

// Framer checks that a sequence of events forms a well-framed message.
// A Framer is not safe for concurrent use; each stream owns one.
type Framer struct {
	started  bool
	terminal bool
	done     bool

	segment   segmentKind
	segmentID string
	closed    map[string]bool
	tools     map[string]toolState
}

// NewFramer returns a Framer for one message.
func NewFramer() *Framer {
	return &Framer{
		closed: make(map[string]bool),
		tools:  make(map[string]toolState),
	}
}

// Check validates ev against the events seen so far and records it.
// Violations are returned as errors wrapping domain.ErrFraming; the
// framer state still advances so later events are judged in context.
func (f *Framer) Check(ev domain.StreamEvent) error {
	if f.done {
		return f.violation(ev, "event after done")
	}
	if _, ok := ev.(domain.Done); ok {
		f.done = true
		if !f.terminal {
			return f.violation(ev, "done without finish or error")
		}
		return nil
	}
	if f.terminal {
		return f.violation(ev, "event after finish or error")
	}

	if _, ok := ev.(domain.MessageStart); ok {
		if f.started {
			return f.violation(ev, "duplicate start")
		}
		f.started = true
		return nil
	}
	if !f.started {
		f.started = true
		return f.violation(ev, "event before start")
	}

	switch e := ev.(type) {
	case domain.TextStart:
		return f.open(ev, segmentText, e.ID)
	case domain.ReasoningStart:
		return f.open(ev, segmentReasoning, e.ID)
	case domain.TextDelta:
		return f.inSegment(ev, segmentText, e.ID)
	case domain.ReasoningDelta:
		return f.inSegment(ev, segmentReasoning, e.ID)
	case domain.TextEnd:
		return f.close(ev, segmentText, e.ID)
	case domain.ReasoningEnd:
		return f.close(ev, segmentReasoning, e.ID)

	case domain.ToolInputStart:
		if _, seen := f.tools[e.ToolCallID]; seen {
			return f.violation(ev, "duplicate tool call id "+e.ToolCallID)
		}
		f.tools[e.ToolCallID] = toolStreaming
		return nil
	case domain.ToolInputDelta:
		if f.tools[e.ToolCallID] != toolStreaming {
			return f.violation(ev, "input delta for tool call not streaming "+e.ToolCallID)
		}
		return nil
	case domain.ToolInputAvailable:
		if f.tools[e.ToolCallID] != toolStreaming {
			return f.violation(ev, "input available for tool call not streaming "+e.ToolCallID)
		}
		f.tools[e.ToolCallID] = toolInputReady
		return nil
	case domain.ToolOutputAvailable:
		if f.tools[e.ToolCallID] != toolInputReady {
			return f.violation(ev, "output for tool call without input "+e.ToolCallID)
		}
		f.tools[e.ToolCallID] = toolDone
		return nil

	case domain.Finish:
		f.terminal = true
		if f.segment != segmentNone {
			return f.violation(ev, "finish with open stream "+f.segmentID)
		}
		for id, st := range f.tools {
			if st != toolDone {
				return f.violation(ev, "finish with pending tool call "+id)
			}
		}
		return nil
	case domain.StreamError:
		f.terminal = true
		return nil
	}
	return f.violation(ev, "unknown event")
}

func (f *Framer) open(ev domain.StreamEvent, kind segmentKind, id string) error {
	if f.segment != segmentNone {
		return f.violation(ev, "stream "+f.segmentID+" still open")
	}
	if f.closed[id] {
		return f.violation(ev, "reopened stream "+id)
	}
	f.segment, f.segmentID = kind, id
	return nil
}

func (f *Framer) inSegment(ev domain.StreamEvent, kind segmentKind, id string) error {
	if f.segment != kind || f.segmentID != id {
		return f.violation(ev, "delta for stream not open "+id)
	}
	return nil
}

func (f *Framer) close(ev domain.StreamEvent, kind segmentKind, id string) error {
	if f.segment != kind || f.segmentID != id {
		return f.violation(ev, "end for stream not open "+id)
	}
	f.segment, f.segmentID = segmentNone, ""
	f.closed[id] = true
	return nil
}

func (f *Framer) violation(ev domain.StreamEvent, msg string) error {
	return domain.NewDomainError("Framer.Check", domain.ErrFraming, fmt.Sprintf("%T: %s", ev, msg))
}
