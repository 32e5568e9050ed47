package gateway

import (
	"net/http"
	"sync/atomic"
	"time"
)

// RootResponse is the JSON body returned by GET /.
type RootResponse struct {
	Message       string `json:"message"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// Metrics tracks request counters for GET /metrics.
type Metrics struct {
	ChatStreams  atomic.Int64
	ChatRejected atomic.Int64
	StreamEvents atomic.Int64
	StreamErrors atomic.Int64
	Completions  atomic.Int64
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Message:       "genui gateway",
		Version:       s.deps.Version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
