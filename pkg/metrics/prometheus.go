package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcome labels.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeNetwork = "network_error"
)

// Metrics holds the run counters. The process is one-shot and serves no
// scrape endpoint, so the counters live on a private registry that is
// gathered once at exit for the run summary.
type Metrics struct {
	registry *prometheus.Registry

	APIRequests   *prometheus.CounterVec
	SeatsReserved prometheus.Counter
	SeatsReleased prometheus.Counter
	OTPAttempts   prometheus.Counter
}

// NewMetrics creates new prometheus metrics on a private registry.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		APIRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "The total number of booking API requests",
		}, []string{"endpoint", "outcome"}),
		SeatsReserved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seats_reserved_total",
			Help:      "The total number of seats successfully reserved",
		}),
		SeatsReleased: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seats_released_total",
			Help:      "The total number of seats released during rollback",
		}),
		OTPAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_attempts_total",
			Help:      "The total number of OTP verification attempts",
		}),
	}
}

// Summary gathers the registry into metric name -> total pairs for the
// end-of-run log line.
func (m *Metrics) Summary() map[string]float64 {
	out := make(map[string]float64)

	families, err := m.registry.Gather()
	if err != nil {
		return out
	}
	for _, family := range families {
		var total float64
		for _, metric := range family.GetMetric() {
			if counter := metric.GetCounter(); counter != nil {
				total += counter.GetValue()
			}
		}
		out[family.GetName()] = total
	}
	return out
}
