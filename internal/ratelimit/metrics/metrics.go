package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AttemptsDenied prometheus.Counter
	ActiveBuckets  prometheus.Gauge
	SweptBuckets   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		AttemptsDenied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "confa_ratelimit_attempts_denied_total",
			Help: "Total login attempts denied by the token bucket limiter",
		}),
		ActiveBuckets: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "confa_ratelimit_active_buckets",
			Help: "Current number of tracked token buckets",
		}),
		SweptBuckets: promauto.NewCounter(prometheus.CounterOpts{
			Name: "confa_ratelimit_swept_buckets_total",
			Help: "Total idle token buckets evicted by the janitor",
		}),
	}
}

func (m *Metrics) IncrementAttemptsDenied() {
	if m != nil {
		m.AttemptsDenied.Inc()
	}
}

func (m *Metrics) SetActiveBuckets(count int) {
	if m != nil {
		m.ActiveBuckets.Set(float64(count))
	}
}

func (m *Metrics) AddSweptBuckets(count int) {
	if m != nil {
		m.SweptBuckets.Add(float64(count))
	}
}
