package llm

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func collectSSE(t *testing.T, body string, parse func([]byte) ([]string, bool)) ([]string, error) {
	t.Helper()
	var endErr error
	ended := 0
	ch := parseSSEStream(context.Background(), io.NopCloser(strings.NewReader(body)), parse, func(err error) []string {
		ended++
		endErr = err
		return []string{"<end>"}
	})

	var got []string
	for v := range ch {
		got = append(got, v)
	}
	if ended != 1 {
		t.Errorf("onEnd called %d times, want 1", ended)
	}
	return got, endErr
}

func passThrough(data []byte) ([]string, bool) {
	return []string{string(data)}, false
}

func TestParseSSEStream(t *testing.T) {
	body := ": comment\n\nevent: ping\ndata: one\n\ndata:two\n\nid: 3\ndata: [DONE]\ndata: after\n"
	got, err := collectSSE(t, body, passThrough)
	if err != nil {
		t.Fatalf("unexpected end error: %v", err)
	}
	want := []string{"one", "two", "<end>"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseSSEStreamStopsWhenDone(t *testing.T) {
	body := "data: a\n\ndata: stop\n\ndata: b\n\n"
	got, _ := collectSSE(t, body, func(data []byte) ([]string, bool) {
		return []string{string(data)}, string(data) == "stop"
	})
	if strings.Join(got, ",") != "a,stop,<end>" {
		t.Errorf("got %v", got)
	}
}

func TestParseSSEStreamMultipleValues(t *testing.T) {
	got, _ := collectSSE(t, "data: x\n\n", func(data []byte) ([]string, bool) {
		return []string{"1", "2"}, false
	})
	if strings.Join(got, ",") != "1,2,<end>" {
		t.Errorf("got %v", got)
	}
}

func TestParseSSEStreamReadError(t *testing.T) {
	var endErr error
	ch := parseSSEStream(context.Background(), &errorReadCloser{}, passThrough, func(err error) []string {
		endErr = err
		return nil
	})
	for range ch {
	}
	if endErr == nil {
		t.Error("onEnd should receive the read error")
	}
}

func TestParseSSEStreamContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	endErr := make(chan error, 1)
	ch := parseSSEStream(ctx, pr, passThrough, func(err error) []string {
		endErr <- err
		return []string{"never delivered"}
	})

	go func() {
		pw.Write([]byte("data: first\n\n"))
	}()
	if v := <-ch; v != "first" {
		t.Fatalf("first value = %q", v)
	}

	cancel()
	pw.CloseWithError(errors.New("closed"))

	select {
	case err := <-endErr:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("onEnd err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("onEnd not called after cancel")
	}
	for v := range ch {
		t.Errorf("unexpected value after cancel: %q", v)
	}
}
