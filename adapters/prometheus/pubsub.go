package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/xsystem-go/core/pubsub"
)

type pubsubMetrics struct {
	subscriptions  prometheus.Counter
	unsubscribed   *prometheus.CounterVec
	publishedTotal *prometheus.CounterVec
	deliveries     *prometheus.CounterVec
}

func NewPubSubMetrics(reg prometheus.Registerer) pubsub.Metrics {
	m := &pubsubMetrics{
		subscriptions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xsystem_pubsub_subscribed_patterns_total",
			Help: "Total number of patterns subscribed to",
		}),
		unsubscribed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xsystem_pubsub_unsubscribes_total",
			Help: "Total number of unsubscribe requests",
		}, []string{"found"}),
		publishedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xsystem_pubsub_published_total",
			Help: "Total number of published events",
		}, []string{"event_type"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xsystem_pubsub_deliveries_total",
			Help: "Total number of deliveries to subscribers",
		}, []string{"event_type"}),
	}

	reg.MustRegister(m.subscriptions, m.unsubscribed, m.publishedTotal, m.deliveries)
	return m
}

func (m *pubsubMetrics) Subscribed(patterns int) {
	m.subscriptions.Add(float64(patterns))
}

func (m *pubsubMetrics) Unsubscribed(found bool) {
	m.unsubscribed.WithLabelValues(boolToStr(found)).Inc()
}

func (m *pubsubMetrics) Published(eventType string, deliveries int) {
	m.publishedTotal.WithLabelValues(eventType).Inc()
	m.deliveries.WithLabelValues(eventType).Add(float64(deliveries))
}

var _ pubsub.Metrics = (*pubsubMetrics)(nil)
