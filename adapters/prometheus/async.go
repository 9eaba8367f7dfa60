package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/xsystem-go/core/async"
)

type asyncMetrics struct {
	epochs  prometheus.Counter
	stale   prometheus.Counter
	settled *prometheus.CounterVec
}

func NewAsyncMetrics(reg prometheus.Registerer) async.Metrics {
	m := &asyncMetrics{
		epochs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xsystem_async_epochs_total",
			Help: "Total number of started transition epochs",
		}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xsystem_async_stale_discarded_total",
			Help: "Total number of discarded settlements of superseded futures",
		}),
		settled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xsystem_async_settled_total",
			Help: "Total number of futures whose result became visible",
		}, []string{"status"}),
	}

	reg.MustRegister(m.epochs, m.stale, m.settled)
	return m
}

func (m *asyncMetrics) EpochStarted() { m.epochs.Inc() }

func (m *asyncMetrics) StaleDiscarded() { m.stale.Inc() }

func (m *asyncMetrics) Settled(status async.Status) {
	m.settled.WithLabelValues(string(status)).Inc()
}

var _ async.Metrics = (*asyncMetrics)(nil)
