// Package bus implements an event bus: a stateless actor that republishes
// every event it receives to its subscribers.
//
// With the Direct strategy events stay in the process. GlobalBroadcast also
// posts every event to a Transport channel named after the bus actor's ID
// and publishes events arriving on that channel to local subscribers.
// Broadcast does the same but wraps events with the process instance tag and
// discards incoming events that carry the local tag.
//
// Events arriving from the transport are only published locally; they are
// never posted back to the channel.
package bus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codewandler/xsystem-go/core/actor"
	"github.com/codewandler/xsystem-go/core/codec"
	"github.com/codewandler/xsystem-go/core/pubsub"
)

type Strategy string

const (
	Direct          Strategy = "direct"
	GlobalBroadcast Strategy = "global-broadcast"
	Broadcast       Strategy = "broadcast"
)

// ParseStrategy parses a strategy name. The empty string is Direct.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", Direct:
		return Direct, nil
	case GlobalBroadcast:
		return GlobalBroadcast, nil
	case Broadcast:
		return Broadcast, nil
	}
	return "", fmt.Errorf("unknown strategy %q", s)
}

// State of a bus actor. A bus holds no state besides its subscribers.
type State = struct{}

type Options struct {
	Strategy  Strategy
	Transport Transport
	// Codec encodes outgoing and decodes incoming events. Defaults to an
	// empty codec.Registry, which decodes every event to actor.Raw.
	Codec codec.Codec
	// InstanceTag scopes the Broadcast strategy. Defaults to InstanceTag().
	InstanceTag uint32
	// Logger defaults to the actor logger.
	Logger  *slog.Logger
	Metrics Metrics
	PubSub  []pubsub.Option
}

// Validate reports configuration errors New would otherwise only log.
func (o Options) Validate() error {
	s, err := ParseStrategy(string(o.Strategy))
	if err != nil {
		return err
	}
	if s != Direct && o.Transport == nil {
		return fmt.Errorf("%s: %w", s, ErrNoTransport)
	}
	return nil
}

// inbound carries a payload from the transport into the bus mailbox.
type inbound struct{ payload []byte }

func (inbound) EventType() string { return "xsystem.internal.relay" }

// New returns the behavior of an event bus. A broadcast strategy without a
// transport degrades to Direct with a warning. New panics on an unknown
// strategy.
func New(opts Options) actor.Behavior[State] {
	strategy, err := ParseStrategy(string(opts.Strategy))
	if err != nil {
		panic(err)
	}
	opts.Strategy = strategy
	if opts.Codec == nil {
		opts.Codec = codec.NewRegistry()
	}
	if opts.InstanceTag == 0 {
		opts.InstanceTag = InstanceTag()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics()
	}

	return pubsub.With(func(publish pubsub.Publish) actor.Behavior[State] {
		if strategy == Direct {
			return actor.Behavior[State]{
				Transition: func(ctx actor.Context, s State, ev actor.Event) State {
					publish(ev)
					return s
				},
			}
		}

		r := &relay{opts: opts, publish: publish}
		return actor.Behavior[State]{
			Start:      r.start,
			Transition: r.transition,
		}
	}, opts.PubSub...)
}

type relay struct {
	opts    Options
	publish pubsub.Publish
	log     *slog.Logger
	ch      Channel
}

func (r *relay) start(ctx actor.Context) State {
	r.log = r.opts.Logger
	if r.log == nil {
		r.log = ctx.Log()
	}
	r.log = r.log.With(slog.String("strategy", string(r.opts.Strategy)))

	if r.opts.Transport == nil {
		r.log.Warn("no transport configured, events stay local")
		return State{}
	}

	self := ctx.Self()
	ch, err := r.opts.Transport.Open(ctx, ctx.ID(), func(payload []byte) {
		self.Send(inbound{payload: payload})
	})
	if err != nil {
		r.log.Error("failed to open channel, events stay local", slog.Any("error", err))
		return State{}
	}
	context.AfterFunc(ctx, func() {
		if err := ch.Close(); err != nil {
			r.log.Warn("failed to close channel", slog.Any("error", err))
		}
	})
	r.ch = ch
	return State{}
}

func (r *relay) transition(ctx actor.Context, s State, ev actor.Event) State {
	if in, ok := ev.(inbound); ok {
		r.receive(in.payload)
		return s
	}

	r.publish(ev)
	if r.ch != nil {
		r.post(ctx, ev)
	}
	return s
}

func (r *relay) post(ctx context.Context, ev actor.Event) {
	payload, err := r.opts.Codec.Encode(ev)
	if err == nil && r.opts.Strategy == Broadcast {
		payload, err = codec.Wrap(r.opts.InstanceTag, payload)
	}
	if err == nil {
		err = r.ch.PostMessage(ctx, payload)
	}
	if err != nil {
		r.opts.Metrics.RelayFailed(DirectionOut)
		r.log.Error("failed to relay event", slog.String("event_type", ev.EventType()), slog.Any("error", err))
		return
	}
	r.opts.Metrics.Relayed(DirectionOut)
}

func (r *relay) receive(payload []byte) {
	if r.opts.Strategy == Broadcast {
		tag, inner, err := codec.Unwrap(payload)
		if err != nil {
			r.rejected(err)
			return
		}
		if tag == r.opts.InstanceTag {
			r.opts.Metrics.EchoDiscarded()
			return
		}
		payload = inner
	}

	ev, err := r.opts.Codec.Decode(payload)
	if err != nil {
		r.rejected(err)
		return
	}
	r.opts.Metrics.Relayed(DirectionIn)
	r.publish(ev)
}

func (r *relay) rejected(err error) {
	r.opts.Metrics.RelayFailed(DirectionIn)
	r.log.Warn("discarding undecodable message", slog.Any("error", err))
}
