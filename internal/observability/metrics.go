package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	clientRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mailctl",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Completed logical calls by outcome.",
		},
		[]string{"method", "outcome"},
	)
	clientDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mailctl",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Logical call duration in seconds, retries included.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "outcome"},
	)
	clientAttempts = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mailctl",
			Subsystem: "client",
			Name:      "attempts_per_request",
			Help:      "Transport attempts per logical call.",
			Buckets:   []float64{1, 2, 3, 4, 5, 8},
		},
		[]string{"method"},
	)
	clientRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mailctl",
			Subsystem: "client",
			Name:      "retries_total",
			Help:      "Retries by transient failure class.",
		},
		[]string{"method", "class"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(clientRequests, clientDuration, clientAttempts, clientRetries)
	})
}

func RecordRequest(method, outcome string, attempts int, duration time.Duration) {
	RegisterMetrics()
	clientRequests.WithLabelValues(method, outcome).Inc()
	clientDuration.WithLabelValues(method, outcome).Observe(duration.Seconds())
	clientAttempts.WithLabelValues(method).Observe(float64(attempts))
}

func RecordRetry(method, class string) {
	RegisterMetrics()
	clientRetries.WithLabelValues(method, class).Inc()
}
