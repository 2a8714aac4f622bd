package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	CasesCreated        prometheus.Counter
	CaseTransitions     *prometheus.CounterVec
	StreamConnections   prometheus.Gauge
	NotificationsSent   *prometheus.CounterVec
	NotificationsFailed prometheus.Counter
	PublishDuration     prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		CasesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "solidarlink_cases_created_total",
			Help: "Total number of humanitarian cases created",
		}),
		CaseTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "solidarlink_case_transitions_total",
			Help: "Case lifecycle transitions by target status and outcome",
		}, []string{"status", "outcome"}),
		StreamConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "solidarlink_stream_connections",
			Help: "Currently open notification stream connections",
		}),
		NotificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "solidarlink_notifications_sent_total",
			Help: "Notification events delivered to stream connections, by event name",
		}, []string{"event"}),
		NotificationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "solidarlink_notifications_failed_total",
			Help: "Notification deliveries dropped because a connection was slow or closed",
		}),
		PublishDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "solidarlink_notification_publish_duration_ms",
			Help:    "Latency of hub publish calls in milliseconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		}),
	}
}

// RecordTransition records the outcome of a case lifecycle transition.
func (m *Metrics) RecordTransition(status string, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "rejected"
	}
	m.CaseTransitions.WithLabelValues(status, outcome).Inc()
}

// ObservePublish records the duration of a hub publish call.
func (m *Metrics) ObservePublish(d time.Duration) {
	if m == nil {
		return
	}
	m.PublishDuration.Observe(float64(d.Microseconds()) / 1000.0)
}
