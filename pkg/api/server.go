package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dd0wney/keygate/pkg/auth"
	"github.com/dd0wney/keygate/pkg/licensing"
	"github.com/dd0wney/keygate/pkg/logging"
	"github.com/dd0wney/keygate/pkg/metrics"
)

// Server is the HTTP surface of the license server. The decision logic
// lives in pkg/licensing; handlers only decode, delegate, and encode.
type Server struct {
	store     licensing.LicenseStore
	engine    *licensing.BindingEngine
	manager   *licensing.Manager
	authn     *auth.AdminAuthenticator
	logger    logging.Logger
	registry  *metrics.Registry
	startTime time.Time
}

// NewServer wires the HTTP surface over the given collaborators
func NewServer(
	store licensing.LicenseStore,
	engine *licensing.BindingEngine,
	manager *licensing.Manager,
	authn *auth.AdminAuthenticator,
	logger logging.Logger,
	registry *metrics.Registry,
) *Server {
	s := &Server{
		store:     store,
		engine:    engine,
		manager:   manager,
		authn:     authn,
		logger:    logger,
		registry:  registry,
		startTime: time.Now(),
	}
	engine.OnBind(registry.RecordDeviceBind)
	return s
}

// Handler returns the fully routed HTTP handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(
		s.registry.GetPrometheusRegistry(),
		promhttp.HandlerOpts{},
	))

	mux.HandleFunc("/api/validate", s.handleValidate)
	mux.HandleFunc("/api/admin/login", s.handleAdminLogin)

	mux.HandleFunc("/api/admin/licenses", s.requireAdminSecret(s.handleLicenses))
	mux.HandleFunc("/api/admin/licenses/extend", s.requireAdminSecret(s.handleExtendLicense))
	mux.HandleFunc("/api/admin/licenses/expiry", s.requireAdminSecret(s.handleSetExpiry))
	mux.HandleFunc("/api/admin/licenses/device", s.requireAdminSecret(s.handleSetDevice))
	mux.HandleFunc("/api/admin/licenses/features", s.requireAdminSecret(s.handleReplaceFeatures))
	mux.HandleFunc("/api/admin/licenses/delete", s.requireAdminSecret(s.handleDeleteLicense))

	return s.metricsMiddleware(mux)
}
