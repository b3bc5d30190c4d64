package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds each component check.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "read-only endpoint")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/lock/status", s.handleLockStatus)
	})

	return r
}

// ComponentHealth is one entry of the health response.
type ComponentHealth struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// handleHealth reports "ok" when every component is healthy and "degraded"
// otherwise. The status code stays 200 as long as the authority can serve.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.health))
	for name := range s.health {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	components := make([]ComponentHealth, 0, len(names))
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := s.health[name](ctx)
		cancel()

		c := ComponentHealth{Name: name, Healthy: err == nil}
		if err != nil {
			c.Error = err.Error()
			status = "degraded"
		}
		components = append(components, c)
	}

	lock := s.lock.Status()
	if !lock.StorageHealthy {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     status,
		"version":    s.version,
		"unit_id":    lock.UnitID,
		"components": components,
	})
}

// handleLockStatus returns the authority snapshot.
func (s *Server) handleLockStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.lock.Status())
}
