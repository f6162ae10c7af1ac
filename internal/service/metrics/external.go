package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fxbias",
			Subsystem: "external",
			Name:      "latency_seconds",
			Help:      "Latency of calls to upstream services",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"service", "operation"},
	)

	ExternalErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fxbias",
			Subsystem: "external",
			Name:      "errors_total",
			Help:      "Failed calls to upstream services",
		},
		[]string{"service", "operation"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(ExternalLatency, ExternalErrors)
	})
}

// Observe records one upstream call started at start. A nil err counts as success.
func Observe(service, operation string, start time.Time, err error) {
	ExternalLatency.WithLabelValues(service, operation).Observe(time.Since(start).Seconds())
	if err != nil {
		ExternalErrors.WithLabelValues(service, operation).Inc()
	}
}
