package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/xsystem-go/core/bus"
)

type busMetrics struct {
	relayed     *prometheus.CounterVec
	relayFailed *prometheus.CounterVec
	echo        prometheus.Counter
}

func NewBusMetrics(reg prometheus.Registerer) bus.Metrics {
	m := &busMetrics{
		relayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xsystem_bus_relayed_total",
			Help: "Total number of events relayed through the transport",
		}, []string{"direction"}),
		relayFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xsystem_bus_relay_failures_total",
			Help: "Total number of events that could not be relayed",
		}, []string{"direction"}),
		echo: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xsystem_bus_echo_discarded_total",
			Help: "Total number of incoming events discarded for carrying the local instance tag",
		}),
	}

	reg.MustRegister(m.relayed, m.relayFailed, m.echo)
	return m
}

func (m *busMetrics) Relayed(direction string) {
	m.relayed.WithLabelValues(direction).Inc()
}

func (m *busMetrics) RelayFailed(direction string) {
	m.relayFailed.WithLabelValues(direction).Inc()
}

func (m *busMetrics) EchoDiscarded() {
	m.echo.Inc()
}

var _ bus.Metrics = (*busMetrics)(nil)
