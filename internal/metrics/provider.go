package metrics

import "github.com/prometheus/client_golang/prometheus"

// Provider call Prometheus metrics.
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inquira",
			Name:      "provider_requests_total",
			Help:      "Total number of LLM provider requests",
		},
		[]string{"provider", "operation", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inquira",
			Name:      "provider_request_duration_seconds",
			Help:      "LLM provider request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "operation"},
	)

	ProviderErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inquira",
			Name:      "provider_errors_total",
			Help:      "Total LLM provider errors",
		},
		[]string{"provider", "operation", "error_type"},
	)
)

var providerMetricsRegistered bool

// RegisterProviderMetrics registers provider metrics. Must be called once from main.
func RegisterProviderMetrics() {
	if providerMetricsRegistered {
		return
	}
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(ProviderRequestDuration)
	prometheus.MustRegister(ProviderErrorsTotal)
	providerMetricsRegistered = true
}
