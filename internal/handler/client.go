package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"objectsrecognition/internal/logger"
	ws "objectsrecognition/internal/service/websocket"
)

const (
	pingWait = 10 * time.Second
	// viewers only send control frames
	maxViewerMessage = 512
)

var (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewWebsocketHandler attaches a viewer to the hub. The viewer stays
// registered while it answers pings; events are written by the hub.
func ViewWebsocketHandler(hub *ws.HubService, logger *logger.Logger) http.HandlerFunc {
	pongWait, pingPeriod := pongWait, pingPeriod
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		conn.SetReadLimit(maxViewerMessage)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})

		hub.Register(conn)
		defer hub.Unregister(conn)

		stop := make(chan struct{})
		defer close(stop)
		go keepAlive(conn, pingPeriod, stop, logger)

		logger.Info("Viewer %s attached", r.RemoteAddr)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Viewer %s detached", r.RemoteAddr)
				} else {
					logger.Warning("Viewer %s lost: %v", r.RemoteAddr, err)
				}
				return
			}
		}
	}
}

// keepAlive pings the viewer until stop is closed. WriteControl may run
// alongside the hub's writes.
func keepAlive(conn *websocket.Conn, period time.Duration, stop <-chan struct{}, logger *logger.Logger) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(pingWait)); err != nil {
				logger.Warning("Ping failed: %v", err)
				conn.Close()
				return
			}
		}
	}
}
