package actor

type (
	// TransitionFunc computes the next state for an event. It is only ever
	// called from the owning actor's goroutine.
	TransitionFunc[S any] func(ctx Context, state S, ev Event) S

	// StartFunc runs once before the first event and returns the initial state.
	StartFunc[S any] func(ctx Context) S

	// Behavior is a unit of state driven by a mailbox. Extensions (pubsub,
	// async, history) wrap a Behavior into another Behavior.
	Behavior[S any] struct {
		Initial    S
		Transition TransitionFunc[S]
		Start      StartFunc[S]
	}
)

// StartState runs the start hook if present, otherwise returns Initial.
func (b Behavior[S]) StartState(ctx Context) S {
	if b.Start == nil {
		return b.Initial
	}
	return b.Start(ctx)
}

// Stateless builds a behavior without state that calls fn for every event.
func Stateless(fn func(ctx Context, ev Event)) Behavior[struct{}] {
	return Behavior[struct{}]{
		Transition: func(ctx Context, s struct{}, ev Event) struct{} {
			fn(ctx, ev)
			return s
		},
	}
}
