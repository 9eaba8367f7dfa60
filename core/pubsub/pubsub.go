// Package pubsub adds hierarchical publish/subscribe to a behavior.
//
// [With] wraps a behavior factory. The wrapped behavior intercepts
// [Subscribe] and [Unsubscribe] events before they reach the inner
// transition, and the factory receives a [Publish] function that fans an
// event out to every subscriber whose pattern matches the event type:
//
//	b := pubsub.With(func(publish pubsub.Publish) actor.Behavior[Orders] {
//	    return actor.Behavior[Orders]{
//	        Transition: func(ctx actor.Context, s Orders, ev actor.Event) Orders {
//	            // ...
//	            publish(OrderCreated{ID: id})
//	            return s
//	        },
//	    }
//	})
//
//	orders := actor.Spawn(b, actor.Options{})
//	orders.Send(pubsub.SubscribeTo(billing, "order.*"))
//
// Patterns are exact event types, prefix wildcards ("order.*") or the
// global wildcard ("*"), see package topic. A subscriber matched through
// several patterns receives each event once.
package pubsub

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/codewandler/xsystem-go/core/actor"
	"github.com/codewandler/xsystem-go/core/ds"
	"github.com/codewandler/xsystem-go/core/topic"
)

// Publish delivers ev to all matching subscribers. It must be called from
// within a transition of the actor owning the subscribers; it never blocks
// on its own, but a panicking subscriber propagates to the caller.
type Publish func(ev actor.Event)

// Option configures the extension.
type Option func(*config)

type config struct {
	separator string
	metrics   Metrics
}

// WithSeparator sets the topic segment separator (default ".").
func WithSeparator(sep string) Option {
	return func(c *config) {
		if sep != "" {
			c.separator = sep
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(c *config) {
		if m != nil {
			c.metrics = m
		}
	}
}

type subscribers struct {
	mu      sync.RWMutex
	sep     string
	refs    *ds.BucketMap[string, actor.Ref]
	metrics Metrics
}

func newSubscribers(opts ...Option) *subscribers {
	cfg := &config{separator: topic.DefaultSeparator, metrics: NopMetrics()}
	for _, opt := range opts {
		opt(cfg)
	}
	return &subscribers{
		sep:     cfg.separator,
		refs:    ds.NewBucketMap[string, actor.Ref](),
		metrics: cfg.metrics,
	}
}

// handle applies subscribe/unsubscribe events and reports whether ev was one.
func (s *subscribers) handle(ctx actor.Context, ev actor.Event) bool {
	switch e := ev.(type) {
	case Subscribe:
		if e.Ref == nil {
			return true
		}
		if !hashable(e.Ref) {
			ctx.Log().Warn("ignoring subscription of non-comparable ref", slog.String("ref_type", fmt.Sprintf("%T", e.Ref)))
			return true
		}
		patterns := e.Patterns
		if len(patterns) == 0 {
			patterns = []string{topic.Wildcard}
		}
		s.mu.Lock()
		for _, p := range patterns {
			s.refs.Add(p, e.Ref)
		}
		s.mu.Unlock()
		s.metrics.Subscribed(len(patterns))
		return true

	case Unsubscribe:
		if e.Ref == nil || !hashable(e.Ref) {
			return true
		}
		s.mu.Lock()
		found := s.refs.Delete(e.Ref)
		s.mu.Unlock()
		s.metrics.Unsubscribed(found)
		return true
	}
	return false
}

// hashable reports whether ref can be used as a map key. A comparable
// interface can still hold an uncomparable value, which only shows when
// hashing it.
func hashable(ref actor.Ref) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_ = map[actor.Ref]struct{}{ref: {}}
	return true
}

func (s *subscribers) publish(ev actor.Event) {
	if ev == nil {
		return
	}
	et := ev.EventType()

	s.mu.RLock()
	refs := s.refs.Values(topic.Candidates(s.sep, et)...)
	s.mu.RUnlock()

	s.metrics.Published(et, len(refs))
	for _, ref := range refs {
		ref.Send(ev)
	}
}

// With wraps the behavior returned by build with subscription handling.
// build is called once, with the publish function bound to the new
// subscriber registry. The registry belongs to the returned behavior, so it
// must be spawned at most once; call With again for every actor.
func With[S any](build func(publish Publish) actor.Behavior[S], opts ...Option) actor.Behavior[S] {
	subs := newSubscribers(opts...)
	inner := build(subs.publish)

	return actor.Behavior[S]{
		Initial: inner.Initial,
		Start:   inner.Start,
		Transition: func(ctx actor.Context, state S, ev actor.Event) S {
			if subs.handle(ctx, ev) {
				return state
			}
			if inner.Transition == nil {
				return state
			}
			return inner.Transition(ctx, state, ev)
		},
	}
}
