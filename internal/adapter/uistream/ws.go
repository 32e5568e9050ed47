package uistream

import (
	"context"
	"fmt"
	"log/slog"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"genui-gateway/internal/domain"
)

// WSWriter sends events as JSON text frames on a websocket. Done is sent
// as {"type":"done"}.
type WSWriter struct {
	conn   *websocket.Conn
	framer *Framer
	logger *slog.Logger
}

// NewWSWriter wraps an accepted websocket connection.
func NewWSWriter(conn *websocket.Conn, logger *slog.Logger) *WSWriter {
	return &WSWriter{conn: conn, framer: NewFramer(), logger: logger}
}

// Write sends one event.
func (ww *WSWriter) Write(ctx context.Context, ev domain.StreamEvent) error {
	if err := ww.framer.Check(ev); err != nil {
		ww.logger.Warn("stream framing violation",
			"error", err, "code", domain.ErrorCodeOf(err))
	}

	p, err := Payload(ev)
	if err != nil {
		return err
	}
	if err := wsjson.Write(ctx, ww.conn, p); err != nil {
		return fmt.Errorf("write ws frame: %w", err)
	}
	return nil
}
