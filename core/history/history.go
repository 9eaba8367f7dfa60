// Package history adds undo and redo to a behavior.
//
// Every state returned by the wrapped transition is recorded. [Undo] and
// [Redo] move through the recorded snapshots without calling the wrapped
// transition, so side effects are neither replayed nor reverted. A new
// event after an undo discards the redo future.
package history

import (
	"github.com/codewandler/xsystem-go/core/actor"
)

const (
	UndoType = "xsystem.undo"
	RedoType = "xsystem.redo"
)

type (
	Undo struct{}
	Redo struct{}
)

func (Undo) EventType() string { return UndoType }
func (Redo) EventType() string { return RedoType }

type Option func(*config)

type config struct {
	limit int
}

// WithLimit bounds the number of retained snapshots. The initial state is
// never evicted.
func WithLimit(n int) Option {
	return func(c *config) { c.limit = n }
}

// With wraps b with a timeline. The returned behavior owns that timeline and
// must be spawned at most once.
func With[S any](b actor.Behavior[S], opts ...Option) actor.Behavior[S] {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	tl := NewTimeline(b.Initial, cfg.limit)

	out := actor.Behavior[S]{
		Initial: b.Initial,
		Transition: func(ctx actor.Context, state S, ev actor.Event) S {
			switch ev.EventType() {
			case UndoType:
				return tl.Undo()
			case RedoType:
				return tl.Redo()
			}

			next := state
			if b.Transition != nil {
				next = b.Transition(ctx, state, ev)
			}
			tl.Push(next)
			return next
		},
	}

	if b.Start != nil {
		out.Start = func(ctx actor.Context) S {
			s := b.Start(ctx)
			tl.Reset(s)
			return s
		}
	}
	return out
}
