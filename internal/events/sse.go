package events

import (
	"fmt"
	"net/http"
	"time"
)

// heartbeatInterval keeps idle streams alive through proxies.
var heartbeatInterval = 30 * time.Second

// SSEHandler streams one topic as Server-Sent Events. Each notification is
// written with the topic as the event name and the payload as data.
type SSEHandler struct {
	bus   *Bus
	topic string
}

// NewSSEHandler creates an SSE endpoint for topic.
func NewSSEHandler(bus *Bus, topic string) *SSEHandler {
	return &SSEHandler{bus: bus, topic: topic}
}

func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sub := h.bus.Subscribe(h.topic)
	defer sub.Close()

	fmt.Fprintf(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Topic, ev.Payload)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}
