package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dd0wney/keygate/pkg/auth"
	"github.com/dd0wney/keygate/pkg/logging"
)

// AdminSecretHeader carries the operator-configured shared secret on every
// administrative request
const AdminSecretHeader = "X-Admin-Key"

// requireAdminSecret gates administrative operations behind the shared
// secret. Rejections carry no detail about which check failed.
func (s *Server) requireAdminSecret(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := s.authn.VerifySecret(r.Header.Get(AdminSecretHeader))
		if err == nil {
			next.ServeHTTP(w, r)
			return
		}

		if errors.Is(err, auth.ErrNotConfigured) {
			s.logger.Error("admin secret not configured", logging.Path(r.URL.Path))
			s.respondError(w, http.StatusInternalServerError, "server misconfigured")
			return
		}

		s.registry.RecordAuthFailure()
		s.logger.Warn("admin request rejected", logging.Path(r.URL.Path))
		s.respondError(w, http.StatusForbidden, "forbidden")
	}
}

// metricsResponseWriter captures the status code for request metrics
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *metricsResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// metricsMiddleware records request counts and latency
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		s.registry.HTTPRequestsInFlight.Inc()
		defer s.registry.HTTPRequestsInFlight.Dec()

		wrapper := &metricsResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapper, r)

		s.registry.RecordHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(wrapper.statusCode), time.Since(start))
	})
}
