package gateway

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"net/url"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"genui-gateway/internal/adapter/uistream"
	"genui-gateway/internal/domain"
	"genui-gateway/internal/usecase/chat"
)

const wsWriteTimeout = 10 * time.Second

// handleChat serves POST /api/chat as a UI message stream. Credential and
// validation failures are answered with a JSON error before any frame.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	s.limitBody(w, r)
	var req chat.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.deps.Logger, err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	seq, err := s.deps.Chat.Handle(ctx, req)
	if err != nil {
		s.metrics.ChatRejected.Add(1)
		writeError(w, s.deps.Logger, err)
		return
	}
	s.metrics.ChatStreams.Add(1)

	uistream.SetHeaders(w)
	w.WriteHeader(http.StatusOK)

	sw := uistream.NewWriter(w, s.deps.Logger)
	n, err := sw.Stream(ctx, s.countErrors(seq))
	s.metrics.StreamEvents.Add(int64(n))
	if err != nil && !errors.Is(err, context.Canceled) {
		s.deps.Logger.Warn("chat stream aborted", "error", err, "events", n)
	}
}

// countErrors passes seq through, counting in-band StreamError events.
func (s *Server) countErrors(seq iter.Seq[domain.StreamEvent]) iter.Seq[domain.StreamEvent] {
	return func(yield func(domain.StreamEvent) bool) {
		for ev := range seq {
			if _, ok := ev.(domain.StreamError); ok {
				s.metrics.StreamErrors.Add(1)
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// wsError is sent in place of a stream when a websocket chat request is
// rejected before streaming.
type wsError struct {
	Type      string           `json:"type"`
	ErrorText string           `json:"errorText"`
	Code      domain.ErrorCode `json:"code"`
}

// handleChatWS serves the chat stream over a websocket. Each text frame from
// the client is one chat request; the reply is that request's events as
// JSON frames ending with {"type":"done"}. Requests on one connection are
// handled in order.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(s.cfg.CORSOrigins),
	})
	if err != nil {
		s.deps.Logger.Warn("websocket accept failed", "error", err)
		return
	}
	if s.cfg.MaxBodyBytes > 0 {
		ws.SetReadLimit(s.cfg.MaxBodyBytes)
	}
	defer ws.CloseNow()

	ctx := r.Context()
	s.deps.Logger.Info("chat websocket connected", "remote", r.RemoteAddr)

	for {
		var req chat.Request
		if err := wsjson.Read(ctx, ws, &req); err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && ctx.Err() == nil {
				s.deps.Logger.Debug("chat websocket read ended", "error", err)
			}
			break
		}
		if err := s.serveWSRequest(ctx, ws, req); err != nil {
			s.deps.Logger.Warn("chat websocket write failed", "error", err)
			break
		}
	}

	ws.Close(websocket.StatusNormalClosure, "")
	s.deps.Logger.Info("chat websocket disconnected", "remote", r.RemoteAddr)
}

func (s *Server) serveWSRequest(ctx context.Context, ws *websocket.Conn, req chat.Request) error {
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	seq, err := s.deps.Chat.Handle(reqCtx, req)
	if err != nil {
		s.metrics.ChatRejected.Add(1)
		wctx, wcancel := context.WithTimeout(ctx, wsWriteTimeout)
		defer wcancel()
		return wsjson.Write(wctx, ws, wsError{
			Type:      "error",
			ErrorText: publicMessage(err),
			Code:      domain.ErrorCodeOf(err),
		})
	}
	s.metrics.ChatStreams.Add(1)

	ww := uistream.NewWSWriter(ws, s.deps.Logger)
	for ev := range s.countErrors(seq) {
		wctx, wcancel := context.WithTimeout(reqCtx, wsWriteTimeout)
		err := ww.Write(wctx, ev)
		wcancel()
		if err != nil {
			return err
		}
		s.metrics.StreamEvents.Add(1)
	}
	return nil
}

// originPatterns converts CORS origins into websocket host patterns. With no
// configured origins only loopback hosts are accepted.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			return []string{"*"}
		}
		if host := hostOf(o); host != "" {
			patterns = append(patterns, host)
		}
	}
	if len(patterns) == 0 {
		patterns = []string{"localhost", "localhost:*", "127.0.0.1", "127.0.0.1:*", "[::1]", "[::1]:*"}
	}
	return patterns
}

func hostOf(origin string) string {
	u, err := url.Parse(origin)
	if err != nil {
		return ""
	}
	return u.Host
}
