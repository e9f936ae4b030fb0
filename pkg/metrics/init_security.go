package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSecurityMetrics() {
	r.AuthFailuresTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "keygate_auth_failures_total",
			Help: "Total number of failed admin authentication attempts",
		},
	)
}
