package route

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"objectsrecognition/internal/handler"
	"objectsrecognition/internal/logger"
	"objectsrecognition/internal/metrics"
	"objectsrecognition/internal/middleware"
	"objectsrecognition/internal/service/websocket"
)

// SetupRoutes registers the control API, the viewer websocket, metrics and
// log endpoints.
func SetupRoutes(h *handler.Handler, hub *websocket.HubService, m *metrics.Metrics, logger *logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics(m))

	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/connect", h.Connect)
		r.Get("/status", h.Status)
		r.Post("/open/{kind}", h.Open)
		r.Post("/next", h.Next)
		r.Post("/previous", h.Previous)
		r.Get("/current", h.Current)
		r.Get("/current/snapshot", h.Snapshot)
		r.Get("/screens/{screen}", h.Screen)
		r.Get("/journal", h.Journal)
		r.Get("/journal/snapshot", h.JournalSnapshot)
		r.Get("/config", h.GetConfig)
		r.Put("/config", h.SaveConfig)
		r.Get("/view", handler.ViewWebsocketHandler(hub, logger))
	})

	// Log endpoints
	r.Get("/logs/{level}", handler.ShowLogsHandler(logger))
	r.Post("/logs/{level}/clear", handler.ClearLogsHandler(logger))

	return r
}
