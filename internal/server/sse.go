package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/pipeline"
)

// SSEWriter writes Server-Sent Events.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter prepares the response for event streaming.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends one event with a JSON data body.
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WritePipelineEvent maps a pipeline event onto the wire protocol.
func (s *SSEWriter) WritePipelineEvent(ev pipeline.Event) error {
	switch ev.Type {
	case pipeline.EventProgress:
		return s.WriteEvent("progress", ev.Progress)
	case pipeline.EventComplete:
		return s.WriteEvent("complete", ev.Complete)
	case pipeline.EventError:
		return s.WriteEvent("error", ev.Error)
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
}
