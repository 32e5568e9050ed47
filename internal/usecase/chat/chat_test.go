package chat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"genui-gateway/internal/adapter/tool"
	"genui-gateway/internal/adapter/uistream"
	"genui-gateway/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCatalog(t *testing.T) *tool.Catalog {
	t.Helper()
	c, err := tool.NewDefaultCatalog(nopLogger())
	if err != nil {
		t.Fatalf("NewDefaultCatalog: %v", err)
	}
	return c
}

// seqIDs returns deterministic ids: text_1, call_2, ...
func seqIDs() IDFunc {
	var mu sync.Mutex
	n := 0
	return func(prefix string) string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s_%d", prefix, n)
	}
}

// --- fake text streamer ---

type fakeTextStreamer struct {
	chunks   []domain.TextChunk
	startErr error

	mu       sync.Mutex
	requests []domain.TextRequest
	released chan struct{}
}

func (f *fakeTextStreamer) Name() string { return "fake-text" }

func (f *fakeTextStreamer) StreamText(ctx context.Context, req domain.TextRequest) (<-chan domain.TextChunk, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.startErr != nil {
		return nil, f.startErr
	}

	ch := make(chan domain.TextChunk)
	go func() {
		defer close(ch)
		if f.released != nil {
			defer close(f.released)
		}
		for _, c := range f.chunks {
			select {
			case ch <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func textChunks(parts ...string) []domain.TextChunk {
	out := make([]domain.TextChunk, len(parts))
	for i, p := range parts {
		out[i] = domain.TextChunk{Text: p}
	}
	return out
}

// --- fake native streamer ---

type fakeNativeStreamer struct {
	turns    [][]domain.ProviderEvent
	startErr error

	mu       sync.Mutex
	requests []domain.NativeRequest
}

func (f *fakeNativeStreamer) Name() string { return "fake-native" }

func (f *fakeNativeStreamer) StreamMessages(ctx context.Context, req domain.NativeRequest) (<-chan domain.ProviderEvent, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.mu.Lock()
	idx := len(f.requests)
	cp := req
	cp.Turns = append([]domain.Turn(nil), req.Turns...)
	f.requests = append(f.requests, cp)
	f.mu.Unlock()

	if idx >= len(f.turns) {
		return nil, fmt.Errorf("unexpected call %d", idx+1)
	}

	ch := make(chan domain.ProviderEvent)
	go func() {
		defer close(ch)
		for _, ev := range f.turns[idx] {
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// --- fake credentials ---

type fakeCreds struct {
	token string
	ok    bool
	err   error
}

func (f fakeCreds) Load() (string, bool)   { return f.token, f.ok }
func (f fakeCreds) Validate(string) error { return f.err }

// collect drains seq, checking framing with a fresh framer.
func collect(t *testing.T, seq func(func(domain.StreamEvent) bool), withEnvelope bool) []domain.StreamEvent {
	t.Helper()
	var events []domain.StreamEvent
	framer := uistream.NewFramer()
	if !withEnvelope {
		_ = framer.Check(domain.MessageStart{MessageID: "m"})
	}
	for ev := range seq {
		if err := framer.Check(ev); err != nil {
			t.Errorf("framing: %v", err)
		}
		events = append(events, ev)
	}
	return events
}

func eventTypes(events []domain.StreamEvent) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = fmt.Sprintf("%T", ev)[len("domain."):]
	}
	return out
}

// drain collects seq without framing checks.
func drain(seq func(func(domain.StreamEvent) bool)) []domain.StreamEvent {
	var events []domain.StreamEvent
	for ev := range seq {
		events = append(events, ev)
	}
	return events
}
