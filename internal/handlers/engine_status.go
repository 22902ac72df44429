package handlers

import (
	"net/http"

	"github.com/kurator-news/kurator/internal/common"
	"github.com/kurator-news/kurator/internal/status"
)

// EngineStatusHandler reports the upstream engine banner state.
type EngineStatusHandler struct {
	logger  *common.Logger
	monitor *status.Monitor
}

// NewEngineStatusHandler creates a new engine status handler.
func NewEngineStatusHandler(logger *common.Logger, monitor *status.Monitor) *EngineStatusHandler {
	return &EngineStatusHandler{logger: logger, monitor: monitor}
}

// ServeHTTP handles GET /api/engine-status.
func (h *EngineStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	snap := h.monitor.Current()
	code := http.StatusOK
	if !snap.Up {
		code = http.StatusServiceUnavailable
	}
	WriteJSON(w, code, snap)
}
