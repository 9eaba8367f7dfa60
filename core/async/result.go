package async

import "context"

// Future computes a state in the background. ctx is cancelled once a newer
// transition supersedes the future or the actor stops.
type Future[S any] func(ctx context.Context) (S, error)

// Result is either a plain state or a Future. The zero Result is the zero
// state.
type Result[S any] struct {
	value  S
	future Future[S]
}

// Value returns a Result that resolves immediately to s.
func Value[S any](s S) Result[S] {
	return Result[S]{value: s}
}

// Await returns a Result that resolves once f returns.
func Await[S any](f Future[S]) Result[S] {
	if f == nil {
		panic("async: nil future")
	}
	return Result[S]{future: f}
}

// Pending reports whether r holds a Future.
func (r Result[S]) Pending() bool { return r.future != nil }
