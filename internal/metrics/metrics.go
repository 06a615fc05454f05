// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

type collectors struct {
	upstreamRequests    *prometheus.CounterVec
	aggregationDuration prometheus.Histogram
}

// Registered once per process so tests constructing many services don't
// trip duplicate registration.
var (
	instance *collectors
	once     sync.Once

	// Registerer is where collectors are registered; override before first use.
	Registerer = prometheus.DefaultRegisterer
)

func get() *collectors {
	once.Do(func() {
		instance = &collectors{
			upstreamRequests: promauto.With(Registerer).NewCounterVec(prometheus.CounterOpts{
				Name: "weather_upstream_requests_total",
				Help: "Upstream weather branch outcomes by source",
			}, []string{"source", "outcome"}),
			aggregationDuration: promauto.With(Registerer).NewHistogram(prometheus.HistogramOpts{
				Name:    "weather_aggregation_duration_seconds",
				Help:    "Time spent serving one aggregation request",
				Buckets: prometheus.DefBuckets,
			}),
		}
	})
	return instance
}

// ObserveUpstream counts one branch outcome.
func ObserveUpstream(source, outcome string) {
	get().upstreamRequests.WithLabelValues(source, outcome).Inc()
}

// ObserveAggregation records the latency of one aggregation.
func ObserveAggregation(d time.Duration) {
	get().aggregationDuration.Observe(d.Seconds())
}

// UpstreamCount returns the current value of one upstream counter.
func UpstreamCount(source, outcome string) float64 {
	c, err := get().upstreamRequests.GetMetricWithLabelValues(source, outcome)
	if err != nil {
		return 0
	}
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}
