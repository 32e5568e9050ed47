package gateway

import (
	"fmt"
	"io"
	"net/http"
	"runtime"
	"time"
)

// handleMetrics serves GET /metrics in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	m := s.metrics
	counter(w, "genui_chat_streams_total", "Chat requests that started a stream.", m.ChatStreams.Load())
	counter(w, "genui_chat_rejected_total", "Chat requests rejected before streaming.", m.ChatRejected.Load())
	counter(w, "genui_stream_events_total", "UI stream events written.", m.StreamEvents.Load())
	counter(w, "genui_stream_errors_total", "In-band stream errors.", m.StreamErrors.Load())
	counter(w, "genui_completions_total", "Completion passthrough requests.", m.Completions.Load())

	if s.deps.MCP != nil {
		gauge(w, "genui_mcp_tools_enabled", "Tools offered by enabled MCP servers.", float64(len(s.deps.MCP.EnabledTools())))
	}
	gauge(w, "genui_uptime_seconds", "Seconds since the gateway started.", time.Since(s.startTime).Seconds())

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	gauge(w, "go_goroutines", "Number of goroutines.", float64(runtime.NumGoroutine()))
	gauge(w, "go_memstats_alloc_bytes", "Bytes of allocated heap objects.", float64(mem.Alloc))
	gauge(w, "go_memstats_sys_bytes", "Total bytes of memory obtained from the OS.", float64(mem.Sys))
}

func counter(w io.Writer, name, help string, v int64) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n", name, help, name, name, v)
}

func gauge(w io.Writer, name, help string, v float64) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %g\n", name, help, name, name, v)
}
