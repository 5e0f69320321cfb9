package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	DenialsTotal *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		DenialsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "waitlist_ratelimit_denials_total",
			Help: "Total number of rate limit denials by policy scope",
		}, []string{"scope"}),
	}
}

func (m *Metrics) IncrementDenials(scope string) {
	m.DenialsTotal.WithLabelValues(scope).Inc()
}
