package authz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "authz",
		Name:      "decisions_total",
		Help:      "Total number of Authz decisions broken down by mode and result.",
	}, []string{"mode", "result"})

	inspectLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "authz",
		Subsystem: "inspect",
		Name:      "latency_seconds",
		Help:      "Latency distribution for Authz inspections.",
		Buckets: []float64{
			0.0005, 0.001, 0.002, 0.005,
			0.01, 0.02, 0.05, 0.1,
		},
	}, []string{"result"})
)

func resultLabel(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}

func recordDecision(mode Mode, allowed bool) {
	decisions.WithLabelValues(string(mode), resultLabel(allowed)).Inc()
}

func recordInspect(allowed bool, latency time.Duration) {
	inspectLatency.WithLabelValues(resultLabel(allowed)).Observe(latency.Seconds())
}
