// Package actor provides the mailbox interpreter and the Behavior contract
// the extension packages build on.
//
// A [Behavior] is a pure state unit: an initial state, a transition
// function (state, event) -> state and an optional start hook. [Spawn]
// drives a behavior with a single goroutine that owns the mailbox and calls
// the transition for one event at a time:
//
//	counter := actor.Spawn(actor.Behavior[int]{
//	    Transition: actor.Match(
//	        actor.On(func(ctx actor.Context, n int, ev Inc) int { return n + ev.By }),
//	    ),
//	}, actor.Options{ID: "counter"})
//
//	counter.Send(Inc{By: 2})
//	_ = counter.Sync(ctx)
//	counter.Snapshot() // 2
//
// # Events and Refs
//
// Events implement [Event] (a constant EventType name per Go type). A [Ref]
// is anything that accepts events; [Actor] is a Ref, and [NewRef] turns a
// function into one. Refs are compared by identity.
//
// # Extensions
//
// Extensions are plain wrappers around a Behavior returning another
// Behavior: pubsub adds subscribe/unsubscribe handling and a publish
// function, async allows transitions to return futures, history adds
// undo/redo. Each wrapped behavior owns private state (subscribers, epochs,
// timeline) and must be spawned at most once.
//
// # Background Tasks
//
// Transitions schedule background work via [Context.Schedule]. Tasks never
// touch state directly; they report back by sending an event into the own
// mailbox with [Context.Send]. The actor waits for scheduled tasks during
// shutdown.
//
// # Lifecycle Control
//
// Actors support pause/resume for debugging and testing:
//
//	a.Pause()   // Stop processing events
//	a.Step()    // Process exactly one event
//	a.Resume()  // Continue normal processing
//	<-a.Done()  // Wait for actor shutdown
package actor
