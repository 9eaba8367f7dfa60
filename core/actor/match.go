package actor

type caseFunc[S any] func(ctx Context, state S, ev Event) (S, bool)

// Case is one branch of a Match transition. Create cases with On, OnType
// and Otherwise.
type Case[S any] struct {
	eventType string
	fallback  bool
	fn        caseFunc[S]
}

// On handles events of Go type E. The event type name is taken from the zero
// value of E, so E must be a value type (or a pointer type whose EventType
// does not dereference the receiver).
func On[E Event, S any](fn func(ctx Context, state S, ev E) S) Case[S] {
	var z E
	return OnType(z.EventType(), fn)
}

// OnType handles events named eventType whose Go type is E.
func OnType[E Event, S any](eventType string, fn func(ctx Context, state S, ev E) S) Case[S] {
	return Case[S]{
		eventType: eventType,
		fn: func(ctx Context, state S, ev Event) (S, bool) {
			e, ok := ev.(E)
			if !ok {
				return state, false
			}
			return fn(ctx, state, e), true
		},
	}
}

// Otherwise handles every event no other case accepted.
func Otherwise[S any](fn TransitionFunc[S]) Case[S] {
	return Case[S]{
		fallback: true,
		fn: func(ctx Context, state S, ev Event) (S, bool) {
			return fn(ctx, state, ev), true
		},
	}
}

// Match builds a transition that dispatches by EventType. Without an
// Otherwise case, unmatched events leave the state unchanged. When several
// cases share an event type, the last one wins.
//
// Example:
//
//	b := actor.Behavior[int]{
//	    Transition: actor.Match(
//	        actor.On(func(ctx actor.Context, n int, ev Inc) int { return n + ev.By }),
//	        actor.On(func(ctx actor.Context, n int, ev Reset) int { return 0 }),
//	    ),
//	}
func Match[S any](cases ...Case[S]) TransitionFunc[S] {
	handlers := make(map[string]caseFunc[S], len(cases))
	var fallback caseFunc[S]
	for _, c := range cases {
		if c.fallback {
			fallback = c.fn
			continue
		}
		handlers[c.eventType] = c.fn
	}

	return func(ctx Context, state S, ev Event) S {
		if h, ok := handlers[ev.EventType()]; ok {
			if next, ok := h(ctx, state, ev); ok {
				return next
			}
		}
		if fallback != nil {
			next, _ := fallback(ctx, state, ev)
			return next
		}
		return state
	}
}
