package server

import "net/http"

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Curation API
	mux.HandleFunc("/api/events", s.app.EventsHandler.ServeHTTP)
	mux.HandleFunc("/api/events/graph", s.app.GraphHandler.ServeHTTP)
	mux.HandleFunc("/api/highlights", s.app.HighlightsHandler.ServeHTTP)
	mux.HandleFunc("/api/stream", s.app.StreamHandler.ServeHTTP)
	mux.HandleFunc("/api/stream/", s.app.StreamHandler.ServeHTTP)

	// Service API
	mux.HandleFunc("/api/health", s.app.HealthHandler.ServeHTTP)
	mux.HandleFunc("/api/version", s.app.VersionHandler.ServeHTTP)
	mux.HandleFunc("/api/engine-status", s.app.EngineStatusHandler.ServeHTTP)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.handleNotFound)

	return mux
}

// handleNotFound returns a JSON 404 for unmatched API routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"Not Found","message":"The requested endpoint does not exist"}`))
}
