package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/influxlog/internal/appender"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/errors", s.handleListErrors)

		r.Route("/logs", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/", s.handleIngestLogs)
			r.Get("/stream", s.handleLogStream)
		})
	})

	return r
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Appender struct {
		State         string `json:"state"`
		URL           string `json:"url"`
		ServerVersion string `json:"server_version,omitempty"`
	} `json:"appender"`
}

// handleHealth answers 200 while the appender is ready and 503 otherwise.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	var resp healthResponse
	resp.Version = s.version
	resp.Appender.State = s.appender.State().String()
	resp.Appender.URL = s.appender.URL()
	resp.Appender.ServerVersion = s.appender.LastProbeVersion()

	status := http.StatusOK
	resp.Status = "ok"
	if s.appender.State() != appender.StateReady {
		status = http.StatusServiceUnavailable
		resp.Status = "degraded"
	}

	writeJSON(w, status, resp)
}
