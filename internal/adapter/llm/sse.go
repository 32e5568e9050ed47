package llm

import (
	"bufio"
	"bytes"
	"context"
	"io"
)

// maxSSELine bounds a single SSE line; tool input deltas can be long.
const maxSSELine = 1 << 20

// parseSSEStream reads "data: " payloads from body and converts each one with
// parseLine, which returns the values to forward and whether the stream is
// complete. onEnd runs exactly once when reading stops; err is the read error,
// nil on EOF or completion. Whatever onEnd returns is forwarded last.
// The channel closes when the stream ends or ctx is cancelled.
func parseSSEStream[T any](
	ctx context.Context,
	body io.ReadCloser,
	parseLine func(data []byte) ([]T, bool),
	onEnd func(err error) []T,
) <-chan T {
	ch := make(chan T, 16)
	go func() {
		defer close(ch)
		defer body.Close()

		send := func(vs []T) bool {
			for _, v := range vs {
				select {
				case ch <- v:
				case <-ctx.Done():
					return false
				}
			}
			return true
		}

		var readErr error
		defer func() {
			if ctx.Err() != nil {
				onEnd(ctx.Err())
				return
			}
			send(onEnd(readErr))
		}()

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), maxSSELine)
		for scanner.Scan() {
			if ctx.Err() != nil {
				return
			}

			line := scanner.Bytes()
			if len(line) == 0 || line[0] == ':' {
				continue
			}
			data, ok := bytes.CutPrefix(line, []byte("data:"))
			if !ok {
				continue
			}
			data = bytes.TrimPrefix(data, []byte(" "))
			if bytes.Equal(data, []byte("[DONE]")) {
				return
			}

			vs, done := parseLine(data)
			if !send(vs) {
				return
			}
			if done {
				return
			}
		}
		readErr = scanner.Err()
	}()
	return ch
}
