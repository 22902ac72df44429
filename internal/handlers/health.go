package handlers

import (
	"net/http"

	"github.com/kurator-news/kurator/internal/common"
	"github.com/kurator-news/kurator/internal/config"
)

// HealthHandler answers liveness probes. It reports on the process only;
// engine reachability has its own endpoint.
type HealthHandler struct {
	logger *common.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(logger *common.Logger) *HealthHandler {
	return &HealthHandler{logger: logger}
}

// ServeHTTP handles GET /api/health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "kurator",
		"version": config.GetVersion(),
	})
}
