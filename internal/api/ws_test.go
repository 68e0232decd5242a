package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/sqlpulse/sqlpulse/internal/model"
)

// A subscriber that only listens must stay connected and receive both the
// snapshot and the alert frames without ever writing a message.
func TestHubDeliversToListenOnlyClient(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	waitForClients(t, hub, 1)

	snap := model.Snapshot{Timestamp: time.Now().UTC()}
	snap.Database.Status = model.StatusConnected
	hub.Broadcast(snap, []model.Alert{{Metric: "cpu", Message: "High CPU usage: 95.0%"}})

	var types []string
	for i := 0; i < 2; i++ {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("frame %d is not JSON: %v", i, err)
		}
		types = append(types, msg.Type)
	}

	if types[0] != "metrics" || types[1] != "alerts" {
		t.Errorf("frame types = %v, want [metrics alerts]", types)
	}
}

func TestHubBroadcastSkipsAlertsWhenNoneRaised(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	waitForClients(t, hub, 1)

	hub.Broadcast(model.Snapshot{Timestamp: time.Now().UTC()}, nil)
	hub.Broadcast(model.Snapshot{Timestamp: time.Now().UTC()}, nil)

	for i := 0; i < 2; i++ {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("frame %d is not JSON: %v", i, err)
		}
		if msg.Type != "metrics" {
			t.Errorf("frame %d type = %q, want metrics", i, msg.Type)
		}
	}
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		hub.mu.RLock()
		n := len(hub.clients)
		hub.mu.RUnlock()
		if n == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", n, want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
