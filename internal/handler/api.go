package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"objectsrecognition/internal/apperr"
	"objectsrecognition/internal/config"
	"objectsrecognition/internal/dto"
	"objectsrecognition/internal/geometry"
	"objectsrecognition/internal/journal"
	"objectsrecognition/internal/logger"
	"objectsrecognition/internal/screens"
	"objectsrecognition/internal/service"
	"objectsrecognition/internal/service/media"
)

// Handler exposes the Manager and the screens over HTTP.
type Handler struct {
	manager   *service.Manager
	navigator *screens.Navigator
	viewer    *journal.Viewer
	config    *config.Config
	envPath   string
	logger    *logger.Logger
}

func NewHandler(manager *service.Manager, navigator *screens.Navigator, viewer *journal.Viewer, config *config.Config, envPath string, logger *logger.Logger) *Handler {
	return &Handler{
		manager:   manager,
		navigator: navigator,
		viewer:    viewer,
		config:    config,
		envPath:   envPath,
		logger:    logger,
	}
}

type statusResponse struct {
	State      string `json:"state"`
	ServiceURL string `json:"service_url"`
	Screen     string `json:"screen"`
}

type openRequest struct {
	Path string `json:"path"`
}

// Connect handles POST /api/connect.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Connect(r.Context()); err != nil {
		writeError(w, service.CaptionConnection, err)
		return
	}
	h.Status(w, r)
}

// Status handles GET /api/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		State:      h.manager.State().String(),
		ServiceURL: h.config.ServiceURL,
		Screen:     h.navigator.Current().String(),
	})
}

// Open handles POST /api/open/{kind} with body {"path": "..."}. An empty path
// is a dismissed selection and answers 204.
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	var open func(context.Context) error
	var caption string
	switch chi.URLParam(r, "kind") {
	case "image":
		open, caption = h.manager.OpenImage, service.CaptionOpenImage
	case "folder":
		open, caption = h.manager.OpenFolder, service.CaptionOpenFolder
	case "video":
		open, caption = h.manager.OpenVideo, service.CaptionOpenVideo
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warning("Invalid open request body: %v", err)
		writeError(w, caption, apperr.ErrInvalidInput)
		return
	}
	if req.Path == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := open(media.WithSelection(r.Context(), req.Path)); err != nil {
		writeError(w, caption, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.manager.Current())
}

// Next handles POST /api/next.
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Next())
}

// Previous handles POST /api/previous.
func (h *Handler) Previous(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Previous())
}

// Current handles GET /api/current.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Current())
}

// Snapshot handles GET /api/current/snapshot, the current item with its
// rectangles drawn in.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	item, rects, ok := h.manager.CurrentItem()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	canvas := h.manager.Canvas()
	data, err := media.Render(item, rects, canvas.Width, canvas.Height)
	if err != nil {
		h.logger.Error("Failed to render %s: %v", item.Name, err)
		writeError(w, "Snapshot", err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

// JournalSnapshot handles GET /api/journal/snapshot?line=...&frame=...: the
// journal entry drawn on the image or archived frame it was found on.
func (h *Handler) JournalSnapshot(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	selection, err := h.viewer.Select(r.Context(), query.Get("line"), query.Get("frame"))
	if err != nil {
		h.logger.Warning("Failed to select journal entry: %v", err)
		writeError(w, "Event journal", err)
		return
	}

	canvas := h.manager.Canvas()
	data, err := media.Render(selection.Item, []geometry.DisplayRect{selection.Rect}, canvas.Width, canvas.Height)
	if err != nil {
		h.logger.Error("Failed to render %s: %v", selection.Item.Name, err)
		writeError(w, "Event journal", err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

// Screen handles GET /api/screens/{screen}.
func (h *Handler) Screen(w http.ResponseWriter, r *http.Request) {
	id, err := screens.ParseID(chi.URLParam(r, "screen"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	view, err := h.navigator.Navigate(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to build screen %s: %v", id, err)
		writeError(w, "Navigation", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"screen": id.String(), "view": view})
}

// Journal handles GET /api/journal, the lines recorded this session.
func (h *Handler) Journal(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"lines": h.manager.SessionLog()})
}

// GetConfig handles GET /api/config.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.config.Editable())
}

// SaveConfig handles PUT /api/config. Saved values apply on next start.
func (h *Handler) SaveConfig(w http.ResponseWriter, r *http.Request) {
	var editable config.Editable
	if err := json.NewDecoder(r.Body).Decode(&editable); err != nil {
		writeError(w, "Configuration", apperr.ErrInvalidInput)
		return
	}

	if err := config.Save(h.envPath, editable); err != nil {
		h.logger.Error("Failed to save configuration: %v", err)
		writeJSON(w, http.StatusBadRequest, dto.Notice{Caption: "Configuration", Message: "Settings could not be saved."})
		return
	}

	h.logger.Info("Configuration saved to %s", h.envPath)
	writeJSON(w, http.StatusOK, map[string]any{"saved": editable, "restart_required": true})
}
