package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-wide HTTP metrics. Feature packages register their
// own domain metrics alongside this.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all platform Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "waitlist_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveRequest records one request's latency.
func (m *Metrics) ObserveRequest(route, status string, elapsed time.Duration) {
	m.RequestDuration.WithLabelValues(route, status).Observe(elapsed.Seconds())
}
