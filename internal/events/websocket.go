package events

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Change is the message sent to WebSocket clients: the key that changed and
// its new serialized value.
type Change struct {
	Key      string          `json:"key"`
	NewValue json.RawMessage `json:"new_value"`
}

// WebSocketHandler pushes one topic to WebSocket clients as Change messages.
// Anything the client sends is discarded.
type WebSocketHandler struct {
	bus   *Bus
	topic string
}

// NewWebSocketHandler creates a WebSocket endpoint for topic.
func NewWebSocketHandler(bus *Bus, topic string) *WebSocketHandler {
	return &WebSocketHandler{bus: bus, topic: topic}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := h.bus.Subscribe(h.topic)
	defer sub.Close()

	// Drain client frames so close and ping control frames are processed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			msg, err := json.Marshal(Change{Key: ev.Topic, NewValue: ev.Payload})
			if err != nil {
				slog.Error("websocket: failed to marshal change", "error", err)
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-heartbeat.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
