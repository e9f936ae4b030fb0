package api

import (
	"net/http"
	"time"

	"github.com/dd0wney/keygate/pkg/logging"
)

// handleHealth returns server health status and verifies store connectivity
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Error("health check failed", logging.Error(err))
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
			"store":  "disconnected",
		})
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"store":  "connected",
		"uptime": time.Since(s.startTime).Seconds(),
	})
}
