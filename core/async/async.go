// Package async lets transitions return futures.
//
// A wrapped transition returns a [Result]: either a plain state ([Value]) or
// a [Future] ([Await]). While a future runs, the actor reports the previous
// value with status [Resolving] and keeps processing events. When the future
// settles, its result is delivered back through the mailbox.
//
// Every transition starts a new epoch. Only a future started in the current
// epoch can ever become visible; results of superseded futures are dropped,
// and their context is cancelled.
package async

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/codewandler/xsystem-go/core/actor"
)

type Status string

const (
	Resolving Status = "resolving"
	Resolved  Status = "resolved"
	Rejected  Status = "rejected"
)

const (
	resolvedType = "xsystem.internal.resolved"
	rejectedType = "xsystem.internal.rejected"
)

// ErrFuturePanicked is the rejection cause of a future that panicked.
var ErrFuturePanicked = errors.New("async: future panicked")

// Behavior is like actor.Behavior, but Transition and Start return a Result.
type Behavior[S any] struct {
	Initial    S
	Transition func(ctx actor.Context, state S, ev actor.Event) Result[S]
	Start      func(ctx actor.Context) Result[S]
}

// State of a wrapped actor. On rejection Value is the value from before the
// rejected transition and Err holds the cause.
type State[S any] struct {
	Value  S
	Status Status
	Err    error
}

type (
	resolved[S any] struct {
		epoch uint64
		value S
	}
	rejected[S any] struct {
		epoch uint64
		value S
		err   error
	}
)

func (resolved[S]) EventType() string { return resolvedType }
func (rejected[S]) EventType() string { return rejectedType }

type Option func(*config)

type config struct {
	metrics Metrics
}

func WithMetrics(m Metrics) Option {
	return func(c *config) {
		if m != nil {
			c.metrics = m
		}
	}
}

// With wraps b into an actor behavior. The returned behavior tracks epochs
// for a single actor and must be spawned at most once.
func With[S any](b Behavior[S], opts ...Option) actor.Behavior[State[S]] {
	cfg := &config{metrics: NopMetrics()}
	for _, opt := range opts {
		opt(cfg)
	}
	w := &wrapper[S]{inner: b, metrics: cfg.metrics}

	return actor.Behavior[State[S]]{
		Initial:    State[S]{Value: b.Initial, Status: Resolved},
		Start:      w.start,
		Transition: w.transition,
	}
}

type wrapper[S any] struct {
	inner   Behavior[S]
	metrics Metrics

	epoch atomic.Uint64
	// cancel of the pending future; only touched on the actor goroutine
	cancel context.CancelFunc
}

func (w *wrapper[S]) start(ctx actor.Context) State[S] {
	if w.inner.Start == nil {
		return State[S]{Value: w.inner.Initial, Status: Resolved}
	}
	return w.resolve(ctx, w.inner.Start(ctx), w.inner.Initial)
}

func (w *wrapper[S]) transition(ctx actor.Context, st State[S], ev actor.Event) State[S] {
	switch e := ev.(type) {
	case resolved[S]:
		if !w.live(st, e.epoch) {
			return st
		}
		w.metrics.Settled(Resolved)
		return State[S]{Value: e.value, Status: Resolved}

	case rejected[S]:
		if !w.live(st, e.epoch) {
			return st
		}
		w.metrics.Settled(Rejected)
		return State[S]{Value: e.value, Status: Rejected, Err: e.err}
	}

	switch ev.EventType() {
	case resolvedType, rejectedType:
		// settlement of another wrapper, never delegated
		return st
	}

	if w.inner.Transition == nil {
		return w.resolve(ctx, Value(st.Value), st.Value)
	}
	return w.resolve(ctx, w.inner.Transition(ctx, st.Value, ev), st.Value)
}

// live reports whether a settlement for epoch may be applied to st.
func (w *wrapper[S]) live(st State[S], epoch uint64) bool {
	if st.Status != Resolving || epoch != w.epoch.Load() {
		w.metrics.StaleDiscarded()
		return false
	}
	return true
}

func (w *wrapper[S]) resolve(ctx actor.Context, res Result[S], fallback S) State[S] {
	epoch := w.epoch.Add(1)
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.metrics.EpochStarted()

	if !res.Pending() {
		return State[S]{Value: res.value, Status: Resolved}
	}

	fctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	future := res.future

	ctx.Schedule(func() {
		defer cancel()

		v, err := run(fctx, future)
		if w.epoch.Load() != epoch {
			w.metrics.StaleDiscarded()
			return
		}

		var settle actor.Event = resolved[S]{epoch: epoch, value: v}
		if err != nil {
			settle = rejected[S]{epoch: epoch, value: fallback, err: err}
		}
		if err := ctx.Send(ctx, settle); err != nil {
			ctx.Log().Debug("dropping settlement", slog.Any("error", err))
		}
	})

	return State[S]{Value: fallback, Status: Resolving}
}

func run[S any](ctx context.Context, f Future[S]) (v S, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrFuturePanicked, r)
		}
	}()
	return f(ctx)
}
