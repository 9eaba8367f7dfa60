package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// OnPanic is called when a transition or start hook panics.
type OnPanic func(recovered any, stack []byte, ev Event)

// ErrActorStopped is returned when sending to a stopped actor.
var ErrActorStopped = errors.New("actor stopped")

// ---- control messages (internal) ----

type ctrlKind int

const (
	ctrlPause ctrlKind = iota
	ctrlResume
	ctrlEnableStep
	ctrlStep
	ctrlStop
)

type ctrlMsg struct {
	kind ctrlKind
}

// barrier is answered by the loop itself once every event enqueued before it
// has been processed. It never reaches the behavior.
type barrier struct{ done chan struct{} }

func (barrier) EventType() string { return "xsystem.internal.barrier" }

type Options struct {
	// ID identifies the actor; defaults to a random nanoid.
	ID          string
	MailboxSize int
	ControlSize int
	Context     context.Context
	Logger      *slog.Logger
	OnPanic     OnPanic
	// MaxConcurrentTasks caps the number of tasks run via Context.Schedule.
	// 0 defaults to 32, negative means unlimited.
	MaxConcurrentTasks int
	Metrics            ActorMetrics
}

// Actor drives a Behavior: it owns the mailbox and the current state and
// calls the transition for one event at a time.
type Actor[S any] struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	log    *slog.Logger

	mailbox chan Event
	control chan ctrlMsg

	stop chan struct{}
	done chan struct{}

	mu     sync.Mutex
	closed bool

	onPanic OnPanic
	metrics ActorMetrics
	sched   *scheduler

	stateMu   sync.RWMutex
	state     S
	observers map[uint64]func(S)
	nextObsID uint64
}

// Spawn starts an actor for b and returns immediately.
func Spawn[S any](b Behavior[S], opt Options) *Actor[S] {
	if opt.ID == "" {
		opt.ID = gonanoid.Must()
	}
	if opt.MailboxSize == 0 {
		opt.MailboxSize = 1024
	}
	if opt.ControlSize == 0 {
		opt.ControlSize = 16
	}
	if opt.Context == nil {
		opt.Context = context.Background()
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.MaxConcurrentTasks == 0 {
		opt.MaxConcurrentTasks = 32
	}
	if opt.Metrics == nil {
		opt.Metrics = NopActorMetrics()
	}

	log := opt.Logger.With(slog.String("actor", opt.ID))

	if opt.OnPanic == nil {
		opt.OnPanic = func(recovered any, stack []byte, ev Event) {
			log.Error("actor panicked", slog.Any("recovered", recovered), slog.String("stack", string(stack)), slog.Any("event", ev))
		}
	}

	ctx, cancel := context.WithCancel(opt.Context)

	a := &Actor[S]{
		id:        opt.ID,
		ctx:       ctx,
		cancel:    cancel,
		log:       log,
		mailbox:   make(chan Event, opt.MailboxSize),
		control:   make(chan ctrlMsg, opt.ControlSize),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		onPanic:   opt.OnPanic,
		metrics:   opt.Metrics,
		sched:     newScheduler(ctx, opt.MaxConcurrentTasks, log, opt.ID, opt.Metrics),
		state:     b.Initial,
		observers: make(map[uint64]func(S)),
	}

	hc := &handlerCtx{
		Context: ctx,
		id:      opt.ID,
		self:    a,
		log:     log,
		send:    a.SendContext,
		sched:   a.sched,
	}

	go a.loop(hc, b)
	return a
}

func (a *Actor[S]) ID() string { return a.id }

// Done is closed when the actor stops.
func (a *Actor[S]) Done() <-chan struct{} { return a.done }

// Snapshot returns the current state.
func (a *Actor[S]) Snapshot() S {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.state
}

// Observe registers fn to be called with every new state, on the actor
// goroutine. An observer registered before the actor has started also sees
// the start state; call Sync first to skip it. The returned func removes the
// observer.
func (a *Actor[S]) Observe(fn func(S)) (cancel func()) {
	a.stateMu.Lock()
	id := a.nextObsID
	a.nextObsID++
	a.observers[id] = fn
	a.stateMu.Unlock()

	return func() {
		a.stateMu.Lock()
		delete(a.observers, id)
		a.stateMu.Unlock()
	}
}

// Stop requests shutdown and waits for completion, including scheduled tasks.
func (a *Actor[S]) Stop() {
	// idempotent
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		<-a.done
		return
	}
	a.closed = true
	a.mu.Unlock()

	select {
	case a.control <- ctrlMsg{kind: ctrlStop}:
	default:
	}
	close(a.stop)
	a.cancel()
	<-a.done
}

// Send enqueues ev without blocking. If the mailbox is full the event is
// dropped and a warning is logged.
func (a *Actor[S]) Send(ev Event) {
	if ev == nil {
		return
	}
	if a.isClosed() {
		a.log.Debug("dropping event, actor stopped", slog.String("event_type", ev.EventType()))
		return
	}
	select {
	case <-a.stop:
	case a.mailbox <- ev:
	default:
		a.metrics.EventDropped(a.id)
		a.log.Warn("mailbox full, dropping event", slog.String("event_type", ev.EventType()))
	}
}

// SendContext enqueues ev, blocking until enqueued, ctx canceled, or actor stopped.
func (a *Actor[S]) SendContext(ctx context.Context, ev Event) error {
	if ev == nil {
		return errors.New("nil event")
	}
	if a.isClosed() {
		return ErrActorStopped
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("send failed: %w", ctx.Err())
	case <-a.stop:
		return ErrActorStopped
	case <-a.ctx.Done():
		return ErrActorStopped
	case a.mailbox <- ev:
		return nil
	}
}

// Sync blocks until every event enqueued before the call has been processed.
func (a *Actor[S]) Sync(ctx context.Context) error {
	b := barrier{done: make(chan struct{})}
	if err := a.SendContext(ctx, b); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-a.done:
		return ErrActorStopped
	case <-b.done:
		return nil
	}
}

// Pause prevents further processing until Resume or Step.
func (a *Actor[S]) Pause() error { return a.sendCtrl(ctrlPause) }

// Resume enables continuous processing (disables step mode).
func (a *Actor[S]) Resume() error { return a.sendCtrl(ctrlResume) }

// EnableStepMode makes the actor process only when Step() is called.
func (a *Actor[S]) EnableStepMode() error { return a.sendCtrl(ctrlEnableStep) }

// Step permits exactly one event to be processed.
func (a *Actor[S]) Step() error { return a.sendCtrl(ctrlStep) }

// ---- internals ----

func (a *Actor[S]) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

func (a *Actor[S]) sendCtrl(k ctrlKind) error {
	if a.isClosed() {
		return ErrActorStopped
	}
	select {
	case <-a.stop:
		return ErrActorStopped
	case a.control <- ctrlMsg{kind: k}:
		return nil
	}
}

func (a *Actor[S]) setState(s S) {
	a.stateMu.Lock()
	a.state = s
	obs := make([]func(S), 0, len(a.observers))
	for _, fn := range a.observers {
		obs = append(obs, fn)
	}
	a.stateMu.Unlock()

	for _, fn := range obs {
		fn(s)
	}
}

func (a *Actor[S]) start(hc Context, b Behavior[S]) (s S) {
	s = b.Initial
	defer func() {
		if r := recover(); r != nil {
			a.metrics.TransitionPanic("start")
			a.onPanic(r, debug.Stack(), nil)
			s = b.Initial
		}
	}()
	return b.StartState(hc)
}

func (a *Actor[S]) transition(hc Context, b Behavior[S], state S, ev Event) (next S) {
	next = state
	et := ev.EventType()
	defer a.metrics.TransitionDuration(et).ObserveDuration()
	defer func() {
		if r := recover(); r != nil {
			a.metrics.TransitionPanic(et)
			a.onPanic(r, debug.Stack(), ev)
			// containment: keep previous state, keep running
			next = state
		}
	}()
	if b.Transition == nil {
		return state
	}
	return b.Transition(hc, state, ev)
}

func (a *Actor[S]) loop(hc *handlerCtx, b Behavior[S]) {
	defer close(a.done)
	defer func() {
		a.cancel()
		a.sched.Wait()
	}()

	// execution state lives only in this goroutine
	paused := false
	stepMode := false
	permit := 1 // when >0, actor may process one event; in run mode we auto-renew

	apply := func(c ctrlMsg) bool {
		switch c.kind {
		case ctrlStop:
			return false
		case ctrlPause:
			paused = true
			permit = 0
		case ctrlResume:
			paused = false
			stepMode = false
			if permit == 0 {
				permit = 1
			}
		case ctrlEnableStep:
			stepMode = true
			paused = true
			permit = 0
		case ctrlStep:
			// allow exactly one processing opportunity
			permit++
		}
		return true
	}

	// drain all pending control msgs (priority)
	drainControl := func() bool {
		for {
			select {
			case <-a.stop:
				return false
			case c := <-a.control:
				if !apply(c) {
					return false
				}
			default:
				return true
			}
		}
	}

	state := a.start(hc, b)
	a.setState(state)

	for {
		if ok := drainControl(); !ok {
			return
		}

		select {
		case <-hc.Done():
			return
		default:
		}

		// If no permit, block until a control message (or stop).
		if permit <= 0 {
			select {
			case <-a.stop:
				return
			case <-hc.Done():
				return
			case c := <-a.control:
				if !apply(c) {
					return
				}
			}
			continue
		}

		// With a permit, process exactly one event, but control can still preempt.
		select {
		case <-a.stop:
			return
		case <-hc.Done():
			return
		case c := <-a.control:
			if !apply(c) {
				return
			}
		case ev := <-a.mailbox:
			a.metrics.MailboxDepth(a.id, len(a.mailbox))
			if br, ok := ev.(barrier); ok {
				close(br.done)
				continue
			}
			permit--
			state = a.transition(hc, b, state, ev)
			a.setState(state)

			// Auto-renew permit in continuous mode.
			if !paused && !stepMode {
				permit++
			}
		}
	}
}

var _ Ref = (*Actor[int])(nil)
