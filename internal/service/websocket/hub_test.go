package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"objectsrecognition/internal/dto"
	"objectsrecognition/internal/logger"
)

func startHub(t *testing.T) (*HubService, *httptest.Server) {
	t.Helper()
	return serveHub(t, NewHubService(logger.NewNop()))
}

func serveHub(t *testing.T, hub *HubService) (*HubService, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
		defer hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(func() {
		cancel()
		server.Close()
	})
	return hub, server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) dto.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var event dto.Event
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("bad event %s: %v", data, err)
	}
	return event
}

func waitForClients(t *testing.T, hub *HubService, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, hub.GetClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_BroadcastsToViewers(t *testing.T) {
	hub, server := startHub(t)
	a := dial(t, server)
	b := dial(t, server)
	waitForClients(t, hub, 2)

	hub.Publish(dto.Event{Type: dto.EventNotice, Notice: &dto.Notice{Caption: "Error", Message: "boom"}})

	for _, conn := range []*websocket.Conn{a, b} {
		event := readEvent(t, conn)
		if event.Type != dto.EventNotice || event.Notice == nil || event.Notice.Message != "boom" {
			t.Errorf("unexpected event %+v", event)
		}
	}
}

func TestHub_NewViewerReceivesSnapshot(t *testing.T) {
	hub, server := startHub(t)

	hub.Publish(dto.Event{Type: dto.EventConnectivity, State: "connected"})
	hub.Publish(dto.Event{Type: dto.EventOverlay, Overlay: &dto.Overlay{Name: "a.jpg", Total: 1, Rects: []dto.Rect{{X: 1, Y: 2, Width: 3, Height: 4, Color: "Green"}}}})

	conn := dial(t, server)
	if event := readEvent(t, conn); event.Type != dto.EventConnectivity || event.State != "connected" {
		t.Errorf("first snapshot event %+v", event)
	}
	event := readEvent(t, conn)
	if event.Type != dto.EventOverlay || event.Overlay == nil || event.Overlay.Name != "a.jpg" || len(event.Overlay.Rects) != 1 {
		t.Errorf("second snapshot event %+v", event)
	}
}

func TestHub_UnregisterOnClose(t *testing.T) {
	hub, server := startHub(t)
	conn := dial(t, server)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_StalledViewerIsDropped(t *testing.T) {
	hub := NewHubService(logger.NewNop())
	hub.writeWait = 100 * time.Millisecond
	hub, server := serveHub(t, hub)

	dial(t, server) // never reads
	healthy := dial(t, server)
	waitForClients(t, hub, 2)

	received := make(chan string, 1024)
	go func() {
		for {
			_, data, err := healthy.ReadMessage()
			if err != nil {
				close(received)
				return
			}
			var event dto.Event
			if json.Unmarshal(data, &event) == nil && event.Type == dto.EventOverlay {
				received <- event.Overlay.Name
			}
		}
	}()

	large := dto.Event{Type: dto.EventNotice, Notice: &dto.Notice{Caption: "Recognition", Message: strings.Repeat("x", 1<<20)}}
	deadline := time.Now().Add(10 * time.Second)
	for hub.GetClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("stalled viewer was not dropped, %d clients", hub.GetClientCount())
		}
		hub.Publish(large)
		time.Sleep(2 * time.Millisecond)
	}

	// the queue may still be full of notices, so keep offering the overlay
	after := dto.Event{Type: dto.EventOverlay, Overlay: &dto.Overlay{Name: "after.jpg"}}
	hub.Publish(after)
	retry := time.NewTicker(50 * time.Millisecond)
	defer retry.Stop()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case <-retry.C:
			hub.Publish(after)
		case name, ok := <-received:
			if !ok {
				t.Fatal("healthy viewer was disconnected")
			}
			if name == "after.jpg" {
				return
			}
		case <-timeout:
			t.Fatal("healthy viewer did not receive the overlay")
		}
	}
}
