package pubsub

import (
	"context"

	"github.com/codewandler/xsystem-go/core/actor"
)

// WithSubscription makes actors spawned from b subscribe themselves to
// publisher when they start, and unsubscribe when they stop.
func WithSubscription[S any](b actor.Behavior[S], publisher actor.Ref, patterns ...string) actor.Behavior[S] {
	start := b.Start
	initial := b.Initial

	b.Start = func(ctx actor.Context) S {
		self := ctx.Self()
		publisher.Send(SubscribeTo(self, patterns...))
		context.AfterFunc(ctx, func() {
			publisher.Send(UnsubscribeFrom(self))
		})

		if start == nil {
			return initial
		}
		return start(ctx)
	}
	return b
}

// Listen subscribes fn to publisher until ctx is done and returns the ref
// fn was registered with. fn is called from the publisher's goroutine.
func Listen(ctx context.Context, publisher actor.Ref, fn func(actor.Event), patterns ...string) actor.Ref {
	ref := actor.NewRef(fn)
	publisher.Send(SubscribeTo(ref, patterns...))
	context.AfterFunc(ctx, func() {
		publisher.Send(UnsubscribeFrom(ref))
	})
	return ref
}
