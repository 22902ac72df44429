package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kurator-news/kurator/internal/common"
	"github.com/kurator-news/kurator/internal/stream"
)

// StreamHandler exposes the live stream connection controls and the
// consumer visibility signal that drives notification buffering.
type StreamHandler struct {
	logger   *common.Logger
	merger   *stream.Merger
	notifier *stream.Notifier
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(logger *common.Logger, merger *stream.Merger, notifier *stream.Notifier) *StreamHandler {
	return &StreamHandler{logger: logger, merger: merger, notifier: notifier}
}

// ServeHTTP handles /api/stream and its subroutes:
//
//	GET  /api/stream             connection state + buffered count
//	POST /api/stream/disconnect  manual disconnect
//	POST /api/stream/reconnect   manual reconnect
//	POST /api/stream/visibility  {"visible": bool}
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := strings.TrimPrefix(r.URL.Path, "/api/stream")
	action = strings.Trim(action, "/")

	switch action {
	case "":
		if !RequireMethod(w, r, "GET") {
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{
			"state":   h.merger.State(),
			"pending": h.notifier.Pending(),
		})
	case "disconnect":
		if !RequireMethod(w, r, "POST") {
			return
		}
		h.merger.Disconnect()
		WriteJSON(w, http.StatusOK, map[string]any{"state": h.merger.State()})
	case "reconnect":
		if !RequireMethod(w, r, "POST") {
			return
		}
		h.merger.Reconnect()
		WriteJSON(w, http.StatusOK, map[string]any{"state": h.merger.State()})
	case "visibility":
		if !RequireMethod(w, r, "POST") {
			return
		}
		var body struct {
			Visible bool `json:"visible"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid visibility body")
			return
		}
		h.notifier.SetVisible(body.Visible)
		WriteJSON(w, http.StatusOK, map[string]any{"visible": body.Visible})
	default:
		WriteError(w, http.StatusNotFound, "unknown stream action")
	}
}
