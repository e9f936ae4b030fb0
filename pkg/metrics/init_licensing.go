package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initLicensingMetrics() {
	r.ValidationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "keygate_license_validations_total",
			Help: "Total number of license validation attempts by outcome",
		},
		[]string{"status"},
	)

	r.DeviceBindsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "keygate_device_binds_total",
			Help: "Total number of first-use device bindings",
		},
	)

	r.LicensesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "keygate_licenses_total",
			Help: "Number of licenses currently stored",
		},
	)

	r.AdminMutationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "keygate_admin_mutations_total",
			Help: "Total number of administrative license mutations by operation",
		},
		[]string{"operation"},
	)
}
