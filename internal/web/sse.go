package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/advagent/advagent/internal/agent"
)

// eventsPollInterval is how often the SSE handler checks for new history
// entries. The history is an append-only slice, so polling an index is
// cheaper than a fan-out subscription for this surface.
const eventsPollInterval = time.Second

// sseWriter wraps an http.ResponseWriter with SSE event writing and
// client disconnect detection.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	ctx     context.Context
}

// newSSEWriter prepares SSE headers and returns a writer.
// Returns nil if streaming is not supported.
func newSSEWriter(w http.ResponseWriter, r *http.Request) *sseWriter {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return nil
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &sseWriter{w: w, flusher: flusher, ctx: r.Context()}
}

// Send writes an SSE event. Returns false if the client has disconnected.
func (s *sseWriter) Send(event string, data any) bool {
	select {
	case <-s.ctx.Done():
		return false
	default:
	}
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		log.Printf("[SSE] JSON marshal error: %v", err)
		return false
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, jsonBytes); err != nil {
		log.Printf("[SSE] Write error (client disconnected?): %v", err)
		return false
	}
	s.flusher.Flush()
	return true
}

type sseExecutionEvent struct {
	Step  int                `json:"step"`
	Entry agent.HistoryEntry `json:"entry"`
}

// handleEvents serves GET /api/events: an SSE stream that replays the
// execution history and then follows new entries until the client leaves.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	sse := newSSEWriter(w, r)
	if sse == nil {
		return
	}

	sent := 0
	ticker := time.NewTicker(eventsPollInterval)
	defer ticker.Stop()

	for {
		history := s.agent.History()
		for ; sent < len(history); sent++ {
			if !sse.Send("execution", sseExecutionEvent{Step: sent + 1, Entry: history[sent]}) {
				return
			}
		}
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
