package actor

import (
	"context"
	"log/slog"
)

type (
	// Context is passed to transitions and start hooks.
	Context interface {
		context.Context
		// ID of the running actor.
		ID() string
		// Self is a ref to the running actor's mailbox.
		Self() Ref
		Log() *slog.Logger
		// Schedule runs f outside the mailbox, bounded by the actor scheduler.
		Schedule(f scheduleFunc)
		// Send enqueues ev into the own mailbox, blocking until it is accepted.
		// Meant for background tasks; calling it from a transition on a full
		// mailbox deadlocks.
		Send(ctx context.Context, ev Event) error
	}
)

type handlerCtx struct {
	context.Context
	id    string
	self  Ref
	log   *slog.Logger
	send  func(ctx context.Context, ev Event) error
	sched Scheduler
}

func (hc *handlerCtx) Schedule(f scheduleFunc) {
	hc.sched.Schedule(func() { f() })
}

func (hc *handlerCtx) ID() string                               { return hc.id }
func (hc *handlerCtx) Self() Ref                                { return hc.self }
func (hc *handlerCtx) Log() *slog.Logger                        { return hc.log }
func (hc *handlerCtx) Send(ctx context.Context, ev Event) error { return hc.send(ctx, ev) }

var _ Context = (*handlerCtx)(nil)
