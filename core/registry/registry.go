// Package registry implements an actor that maps IDs to refs.
//
// The registry holds refs, not actors: it never keeps an actor running. Refs
// that expose a Done channel, such as *actor.Actor, are removed once they
// are done.
package registry

import (
	"log/slog"
	"maps"

	"github.com/codewandler/xsystem-go/core/actor"
)

// State maps IDs to refs. Every change produces a new map, so a snapshot
// may be read while the registry keeps running.
type State map[string]actor.Ref

type doner interface {
	Done() <-chan struct{}
}

// New returns the registry behavior. Every registered ref with a Done
// channel is watched by a task on the registry's scheduler; spawn the
// registry with a negative actor.Options.MaxConcurrentTasks so the number of
// watched refs is not capped.
func New() actor.Behavior[State] {
	return actor.Behavior[State]{
		Initial: State{},
		Transition: actor.Match(
			actor.On(register),
			actor.On(unregister),
			actor.On(lookup),
			actor.On(removeGone),
		),
	}
}

func register(ctx actor.Context, s State, ev RegisterRequest) State {
	reply := func(status Status) {
		if ev.Origin != nil {
			ev.Origin.Send(RegisterResponse{ID: ev.ID, Status: status})
		}
	}

	if ev.ID == "" || ev.Ref == nil {
		reply(Failed)
		return s
	}
	if _, ok := s[ev.ID]; ok {
		reply(AlreadyExists)
		return s
	}

	next := maps.Clone(s)
	next[ev.ID] = ev.Ref
	ctx.Log().Debug("registered", slog.String("id", ev.ID))

	if d, ok := ev.Ref.(doner); ok {
		watch(ctx, ev.ID, ev.Ref, d.Done())
	}

	reply(Success)
	return next
}

func unregister(ctx actor.Context, s State, ev Unregister) State {
	if _, ok := s[ev.ID]; !ok {
		return s
	}
	next := maps.Clone(s)
	delete(next, ev.ID)
	ctx.Log().Debug("unregistered", slog.String("id", ev.ID))
	return next
}

func lookup(ctx actor.Context, s State, ev LookupRequest) State {
	if ev.Requestor == nil {
		return s
	}
	ref, ok := s[ev.ID]
	ev.Requestor.Send(LookupResponse{RequestID: ev.RequestID, Ref: ref, Found: ok})
	return s
}

// removeGone only removes the entry if it still holds the ref that is gone;
// the ID may have been registered again in the meantime.
func removeGone(ctx actor.Context, s State, ev gone) State {
	if cur, ok := s[ev.id]; !ok || cur != ev.ref {
		return s
	}
	return unregister(ctx, s, Unregister{ID: ev.id})
}

// watch occupies one scheduler slot until ref is done or the registry
// stops.
func watch(ctx actor.Context, id string, ref actor.Ref, done <-chan struct{}) {
	self := ctx.Self()
	ctx.Schedule(func() {
		select {
		case <-ctx.Done():
		case <-done:
			self.Send(gone{id: id, ref: ref})
		}
	})
}
