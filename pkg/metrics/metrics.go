package metrics

import (
	"time"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordValidation records a license validation attempt by outcome
func (r *Registry) RecordValidation(status string) {
	r.ValidationsTotal.WithLabelValues(status).Inc()
}

// RecordDeviceBind records a first-use device binding
func (r *Registry) RecordDeviceBind() {
	r.DeviceBindsTotal.Inc()
}

// RecordAdminMutation records an administrative license mutation
func (r *Registry) RecordAdminMutation(operation string) {
	r.AdminMutationsTotal.WithLabelValues(operation).Inc()
}

// RecordAuthFailure records a failed admin authentication attempt
func (r *Registry) RecordAuthFailure() {
	r.AuthFailuresTotal.Inc()
}

// SetLicensesTotal updates the stored-license gauge
func (r *Registry) SetLicensesTotal(n int) {
	r.LicensesTotal.Set(float64(n))
}
