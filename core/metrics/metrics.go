// Package metrics holds the small instrumentation abstractions shared by the
// core packages. Backends (see adapters/prometheus) implement the per-package
// metrics interfaces; the core only ever sees these types.
package metrics

import "time"

// Timer measures the duration of an operation. Call ObserveDuration when
// the operation completes to record the elapsed time.
type Timer interface {
	// ObserveDuration records the elapsed time since the timer was created.
	ObserveDuration()
}

// TimerFunc creates a new Timer. It allows deferred timing like
// defer m.MessageDuration("order.created").ObserveDuration().
type TimerFunc func() Timer

// FuncTimer calls observe with the elapsed time when ObserveDuration is called.
// Useful for tests and ad-hoc instrumentation.
func FuncTimer(observe func(time.Duration)) Timer {
	return &funcTimer{start: time.Now(), observe: observe}
}

type funcTimer struct {
	start   time.Time
	observe func(time.Duration)
}

func (t *funcTimer) ObserveDuration() { t.observe(time.Since(t.start)) }
