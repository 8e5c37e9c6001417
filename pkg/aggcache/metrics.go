package aggcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aggcache",
		Name:      "requests_total",
		Help:      "Total number of aggregate cache lookups broken down by endpoint and result.",
	}, []string{"endpoint", "result"})

	cacheInvalidate = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aggcache",
		Name:      "invalidate_total",
		Help:      "Total number of aggregate cache invalidations broken down by reason.",
	}, []string{"reason"})
)

func recordRequest(endpoint, result string) {
	cacheRequests.WithLabelValues(endpoint, result).Inc()
}

// RecordInvalidate counts one scope invalidation.
func RecordInvalidate(reason string) {
	if reason == "" {
		reason = "manual"
	}
	cacheInvalidate.WithLabelValues(reason).Inc()
}
