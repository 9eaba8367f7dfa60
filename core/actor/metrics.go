package actor

import "github.com/codewandler/xsystem-go/core/metrics"

// ActorMetrics defines the metrics recorded by the interpreter.
// All methods are thread-safe.
type ActorMetrics interface {
	// Transitions
	TransitionDuration(eventType string) metrics.Timer
	TransitionPanic(eventType string)

	// Mailbox
	MailboxDepth(actorID string, depth int)
	EventDropped(actorID string)

	// Scheduler
	SchedulerInflight(actorID string, count int)
	SchedulerTaskDuration() metrics.Timer
	SchedulerTaskCompleted(success bool)
}

type nopActorMetrics struct{}

func (nopActorMetrics) TransitionDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopActorMetrics) TransitionPanic(string)                  {}

func (nopActorMetrics) MailboxDepth(string, int) {}
func (nopActorMetrics) EventDropped(string)      {}

func (nopActorMetrics) SchedulerInflight(string, int)        {}
func (nopActorMetrics) SchedulerTaskDuration() metrics.Timer { return metrics.NopTimer() }
func (nopActorMetrics) SchedulerTaskCompleted(bool)          {}

// NopActorMetrics returns a no-op ActorMetrics implementation.
func NopActorMetrics() ActorMetrics { return nopActorMetrics{} }
