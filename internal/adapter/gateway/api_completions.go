package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"genui-gateway/internal/domain"
	"genui-gateway/internal/usecase/completion"
)

var completionDone = []byte("data: [DONE]\n\n")

// handleCompletions serves POST /v1/chat/completions. Streaming requests
// get chat.completion.chunk frames ending in [DONE]; an upstream failure
// mid-stream becomes one error frame before [DONE].
func (s *Server) handleCompletions(w http.ResponseWriter, r *http.Request) {
	s.limitBody(w, r)
	var req completion.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.deps.Logger, err)
		return
	}
	s.metrics.Completions.Add(1)

	if !req.Streaming() {
		body, err := s.deps.Completions.Complete(r.Context(), req)
		if err != nil {
			writeError(w, s.deps.Logger, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}

	seq, err := s.deps.Completions.Stream(r.Context(), req)
	if err != nil {
		writeError(w, s.deps.Logger, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	for chunk, err := range seq {
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.metrics.StreamErrors.Add(1)
			s.deps.Logger.Warn("completion stream failed", "error", err, "code", domain.ErrorCodeOf(err))
			if werr := writeSSE(w, rc, errorBody{Error: errorDetail{
				Code:    domain.ErrorCodeOf(err),
				Message: publicMessage(err),
			}}); werr != nil {
				return
			}
			break
		}
		if err := writeSSE(w, rc, chunk); err != nil {
			s.deps.Logger.Debug("completion stream write failed", "error", err)
			return
		}
	}
	if _, err := w.Write(completionDone); err == nil {
		_ = rc.Flush()
	}
}

func writeSSE(w http.ResponseWriter, rc *http.ResponseController, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", body); err != nil {
		return err
	}
	return rc.Flush()
}
