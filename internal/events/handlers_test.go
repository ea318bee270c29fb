package events

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func waitForSubscribers(t *testing.T, bus *Bus, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for bus.SubscriberCount() < n && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if bus.SubscriberCount() < n {
		t.Fatalf("got %d subscribers, want %d", bus.SubscriberCount(), n)
	}
}

func TestSSEHandler_MethodNotAllowed(t *testing.T) {
	h := NewSSEHandler(NewBus(), "packages")

	req := httptest.NewRequest(http.MethodPost, "/api/events", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestSSEHandler_StreamsPackageChanges(t *testing.T) {
	bus := NewBus()
	ts := httptest.NewServer(NewSSEHandler(bus, "packages"))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected Content-Type text/event-stream, got %s", ct)
	}

	waitForSubscribers(t, bus, 1)
	bus.Publish("orders", []byte(`"ignored"`))
	bus.Publish("packages", []byte(`[{"name":"Business"}]`))

	scanner := bufio.NewScanner(resp.Body)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if strings.HasPrefix(scanner.Text(), "data: [") {
			break
		}
	}

	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "event: connected") {
		t.Errorf("missing connected event in %q", joined)
	}
	if !strings.Contains(joined, "event: packages\ndata: [{\"name\":\"Business\"}]") {
		t.Errorf("missing packages event in %q", joined)
	}
	if strings.Contains(joined, "ignored") {
		t.Errorf("received event for another topic: %q", joined)
	}
}

func TestWebSocketHandler_PushesChange(t *testing.T) {
	bus := NewBus()
	ts := httptest.NewServer(NewWebSocketHandler(bus, "packages"))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	waitForSubscribers(t, bus, 1)
	bus.Publish("packages", []byte(`[{"name":"Professional"}]`))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var change Change
	if err := json.Unmarshal(msg, &change); err != nil {
		t.Fatalf("bad message %s: %v", msg, err)
	}
	if change.Key != "packages" || string(change.NewValue) != `[{"name":"Professional"}]` {
		t.Errorf("got %+v", change)
	}
}

func TestWebSocketHandler_UnsubscribesOnClose(t *testing.T) {
	bus := NewBus()
	ts := httptest.NewServer(NewWebSocketHandler(bus, "packages"))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	waitForSubscribers(t, bus, 1)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for bus.SubscriberCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if bus.SubscriberCount() != 0 {
		t.Errorf("subscriber not released after client close")
	}
}
