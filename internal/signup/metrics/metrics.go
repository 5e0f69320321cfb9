package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SignupsCreated       prometheus.Counter
	SignupsRejected      *prometheus.CounterVec
	NotificationsSent    prometheus.Counter
	NotificationFailures prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		SignupsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "waitlist_signups_created_total",
			Help: "Total number of waitlist signups persisted",
		}),
		SignupsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "waitlist_signups_rejected_total",
			Help: "Total number of rejected signup attempts by reason",
		}, []string{"reason"}),
		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "waitlist_notifications_sent_total",
			Help: "Total number of confirmation messages delivered",
		}),
		NotificationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "waitlist_notification_failures_total",
			Help: "Total number of confirmation deliveries that failed (never surfaced to callers)",
		}),
	}
}

func (m *Metrics) IncrementSignupsCreated() {
	m.SignupsCreated.Inc()
}

func (m *Metrics) IncrementSignupsRejected(reason string) {
	m.SignupsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementNotificationsSent() {
	m.NotificationsSent.Inc()
}

func (m *Metrics) IncrementNotificationFailures() {
	m.NotificationFailures.Inc()
}
