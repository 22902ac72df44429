package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kurator-news/kurator/internal/cache"
	"github.com/kurator-news/kurator/internal/common"
)

// HighlightsHandler exposes the newly-arrived event IDs and their
// acknowledgment operation.
type HighlightsHandler struct {
	logger *common.Logger
	cache  *cache.EventCache
}

// NewHighlightsHandler creates a new highlights handler.
func NewHighlightsHandler(logger *common.Logger, c *cache.EventCache) *HighlightsHandler {
	return &HighlightsHandler{logger: logger, cache: c}
}

// ServeHTTP handles GET /api/highlights and POST /api/highlights
// (acknowledge). Highlights only leave the set through acknowledgment.
func (h *HighlightsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		WriteJSON(w, http.StatusOK, map[string]any{
			"ids": h.cache.Highlights(),
		})
	case http.MethodPost:
		var body struct {
			IDs []string `json:"ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid acknowledge body")
			return
		}
		h.cache.Acknowledge(body.IDs...)
		WriteJSON(w, http.StatusOK, map[string]any{
			"acknowledged": len(body.IDs),
			"remaining":    len(h.cache.Highlights()),
		})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
