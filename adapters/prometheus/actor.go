package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/xsystem-go/core/actor"
	"github.com/codewandler/xsystem-go/core/metrics"
)

// actorMetrics implements actor.ActorMetrics using Prometheus.
type actorMetrics struct {
	transitionDuration    *prometheus.HistogramVec
	panicTotal            *prometheus.CounterVec
	mailboxDepth          *prometheus.GaugeVec
	droppedTotal          *prometheus.CounterVec
	schedulerInflight     *prometheus.GaugeVec
	schedulerTaskDuration prometheus.Histogram
	schedulerTasksTotal   *prometheus.CounterVec
}

// NewActorMetrics creates a new Prometheus implementation of ActorMetrics.
func NewActorMetrics(reg prometheus.Registerer) actor.ActorMetrics {
	m := &actorMetrics{
		transitionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "xsystem_actor_transition_duration_seconds",
			Help:    "Transition time in seconds",
			Buckets: defaultBuckets,
		}, []string{"event_type"}),

		panicTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xsystem_actor_panics_total",
			Help: "Total number of recovered transition panics",
		}, []string{"event_type"}),

		mailboxDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "xsystem_actor_mailbox_depth",
			Help: "Current mailbox queue depth",
		}, []string{"actor_id"}),

		droppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xsystem_actor_events_dropped_total",
			Help: "Total number of events dropped because the mailbox was full",
		}, []string{"actor_id"}),

		schedulerInflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "xsystem_actor_scheduler_inflight",
			Help: "Number of concurrent scheduled tasks",
		}, []string{"actor_id"}),

		schedulerTaskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "xsystem_actor_scheduler_task_duration_seconds",
			Help:    "Scheduled task duration in seconds",
			Buckets: defaultBuckets,
		}),

		schedulerTasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xsystem_actor_scheduler_tasks_total",
			Help: "Total number of scheduled tasks completed",
		}, []string{"success"}),
	}

	reg.MustRegister(
		m.transitionDuration,
		m.panicTotal,
		m.mailboxDepth,
		m.droppedTotal,
		m.schedulerInflight,
		m.schedulerTaskDuration,
		m.schedulerTasksTotal,
	)

	return m
}

func (m *actorMetrics) TransitionDuration(eventType string) metrics.Timer {
	return newTimer(m.transitionDuration.WithLabelValues(eventType))
}

func (m *actorMetrics) TransitionPanic(eventType string) {
	m.panicTotal.WithLabelValues(eventType).Inc()
}

func (m *actorMetrics) MailboxDepth(actorID string, depth int) {
	m.mailboxDepth.WithLabelValues(actorID).Set(float64(depth))
}

func (m *actorMetrics) EventDropped(actorID string) {
	m.droppedTotal.WithLabelValues(actorID).Inc()
}

func (m *actorMetrics) SchedulerInflight(actorID string, count int) {
	m.schedulerInflight.WithLabelValues(actorID).Set(float64(count))
}

func (m *actorMetrics) SchedulerTaskDuration() metrics.Timer {
	return newTimer(m.schedulerTaskDuration)
}

func (m *actorMetrics) SchedulerTaskCompleted(success bool) {
	m.schedulerTasksTotal.WithLabelValues(boolToStr(success)).Inc()
}

var _ actor.ActorMetrics = (*actorMetrics)(nil)
