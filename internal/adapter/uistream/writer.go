package uistream

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net/http"

	"genui-gateway/internal/domain"
)

// SetHeaders sets the UI message stream response headers.
func SetHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set(HeaderStreamVersion, "v1")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// Writer writes framed events to an HTTP response, flushing after each.
type Writer struct {
	w      http.ResponseWriter
	rc     *http.ResponseController
	framer *Framer
	logger *slog.Logger
}

// NewWriter wraps w. Headers must be set before the first Write.
func NewWriter(w http.ResponseWriter, logger *slog.Logger) *Writer {
	return &Writer{
		w:      w,
		rc:     http.NewResponseController(w),
		framer: NewFramer(),
		logger: logger,
	}
}

// Write encodes and flushes one event. Framing violations are logged and
// the frame is written anyway.
func (sw *Writer) Write(ev domain.StreamEvent) error {
	if err := sw.framer.Check(ev); err != nil {
		sw.logger.Warn("stream framing violation",
			"error", err, "code", domain.ErrorCodeOf(err))
	}

	frame, err := Encode(ev)
	if err != nil {
		return err
	}
	if _, err := sw.w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if err := sw.rc.Flush(); err != nil {
		return domain.WrapOp("uistream.Write", fmt.Errorf("%w: %v", domain.ErrStreamUnsupported, err))
	}
	return nil
}

// Stream writes every event of seq, stopping at the first write error or
// when ctx is cancelled. Returns the number of events written.
func (sw *Writer) Stream(ctx context.Context, seq iter.Seq[domain.StreamEvent]) (int, error) {
	n := 0
	for ev := range seq {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if err := sw.Write(ev); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
