package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"objectsrecognition/internal/dto"
	"objectsrecognition/internal/logger"
)

const (
	broadcastBuffer = 64
	// writeWait bounds one write to a viewer; a viewer that stalls longer is dropped.
	writeWait = 10 * time.Second
)

// HubService fans events out to every connected viewer. New viewers first
// receive the latest overlay and connectivity events so they start in sync.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
	writeWait  time.Duration

	lastMu      sync.Mutex
	lastOverlay []byte
	lastState   []byte
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
		writeWait:  writeWait,
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every viewer connection.
func (h *HubService) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", count)
			h.sendSnapshot(client)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", count)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				if err := h.write(client, message); err != nil {
					h.logger.Error("Error sending message, dropping viewer: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *HubService) sendSnapshot(client *websocket.Conn) {
	h.lastMu.Lock()
	snapshot := [][]byte{h.lastState, h.lastOverlay}
	h.lastMu.Unlock()

	for _, message := range snapshot {
		if message == nil {
			continue
		}
		if err := h.write(client, message); err != nil {
			h.logger.Error("Error sending snapshot: %v", err)
			return
		}
	}
}

func (h *HubService) write(client *websocket.Conn, message []byte) error {
	if err := client.SetWriteDeadline(time.Now().Add(h.writeWait)); err != nil {
		return err
	}
	return client.WriteMessage(websocket.TextMessage, message)
}

// Register adds a viewer. After Run has stopped the connection is closed.
func (h *HubService) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish encodes the event and queues it for every viewer. When the queue is
// full the event is dropped; viewers resynchronise on the next overlay.
func (h *HubService) Publish(event dto.Event) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Error encoding %s event: %v", event.Type, err)
		return
	}

	h.lastMu.Lock()
	switch event.Type {
	case dto.EventOverlay:
		h.lastOverlay = message
	case dto.EventConnectivity:
		h.lastState = message
	}
	h.lastMu.Unlock()

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warning("Dropped %s event, broadcast queue full", event.Type)
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
