// Package websocket connects actors to WebSocket peers.
//
// [NewSocket] is a client behavior: every event sent to it is written to the
// connection as a JSON text frame, and every event read from the connection
// is published to its subscribers. [Handler] is the server side: it bridges
// each accepted connection to an event bus.
package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/codewandler/xsystem-go/core/actor"
	"github.com/codewandler/xsystem-go/core/codec"
	"github.com/codewandler/xsystem-go/core/pubsub"
)

type Status string

const (
	Connecting Status = "connecting"
	Open       Status = "open"
	Closed     Status = "closed"
)

// State of a socket actor. Queue holds encoded events waiting for the
// connection to open.
type State struct {
	Status Status
	Queue  [][]byte
}

// Dialer opens the client connection.
type Dialer func(ctx context.Context) (*websocket.Conn, error)

// DialURL returns a Dialer for url using the default gorilla dialer.
func DialURL(url string, header http.Header) Dialer {
	return func(ctx context.Context) (*websocket.Conn, error) {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
		return conn, err
	}
}

type Options struct {
	// Codec defaults to an empty codec.Registry.
	Codec codec.Codec
	// Filter, if set, drops incoming events for which it returns false.
	Filter func(ev actor.Event) bool
	// WriteTimeout per frame (default 10s).
	WriteTimeout time.Duration
	PubSub       []pubsub.Option
}

func (o *Options) defaults() {
	if o.Codec == nil {
		o.Codec = codec.NewRegistry()
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = defaultWriteTimeout
	}
}

type (
	opened   struct{ conn *websocket.Conn }
	closed   struct{ err error }
	received struct{ data []byte }
)

func (opened) EventType() string   { return "xsystem.websocket.internal.opened" }
func (closed) EventType() string   { return "xsystem.websocket.internal.closed" }
func (received) EventType() string { return "xsystem.websocket.internal.received" }

// NewSocket returns a behavior managing one client connection. The
// connection is dialed when the actor starts and closed when it stops; it is
// not redialed.
func NewSocket(dial Dialer, opts Options) actor.Behavior[State] {
	opts.defaults()

	return pubsub.With(func(publish pubsub.Publish) actor.Behavior[State] {
		s := &socket{dial: dial, opts: opts, publish: publish}
		return actor.Behavior[State]{
			Initial:    State{Status: Connecting},
			Start:      s.start,
			Transition: s.transition,
		}
	}, opts.PubSub...)
}

type socket struct {
	dial    Dialer
	opts    Options
	publish pubsub.Publish
	// only touched on the actor goroutine
	conn *websocket.Conn
}

func (s *socket) start(ctx actor.Context) State {
	ctx.Schedule(func() { s.run(ctx) })
	return State{Status: Connecting}
}

// run dials and then reads frames until the connection fails.
func (s *socket) run(ctx actor.Context) {
	conn, err := s.dial(ctx)
	if err != nil {
		ctx.Log().Warn("websocket dial failed", slog.Any("error", err))
		_ = ctx.Send(ctx, closed{err: err})
		return
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := ctx.Send(ctx, opened{conn: conn}); err != nil {
		_ = conn.Close()
		return
	}

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			_ = ctx.Send(ctx, closed{err: err})
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		if err := ctx.Send(ctx, received{data: data}); err != nil {
			return
		}
	}
}

func (s *socket) transition(ctx actor.Context, st State, ev actor.Event) State {
	switch e := ev.(type) {
	case opened:
		s.conn = e.conn
		ctx.Log().Debug("websocket open", slog.Int("queued", len(st.Queue)))
		return s.write(ctx, st.Queue)

	case closed:
		if s.conn != nil {
			_ = s.conn.Close()
			s.conn = nil
		}
		ctx.Log().Debug("websocket closed", slog.Any("error", e.err))
		return State{Status: Closed, Queue: st.Queue}

	case received:
		in, err := s.opts.Codec.Decode(e.data)
		if err != nil {
			ctx.Log().Debug("dropping websocket frame", slog.Any("error", err))
			return st
		}
		if s.opts.Filter != nil && !s.opts.Filter(in) {
			return st
		}
		s.publish(in)
		return st
	}

	frame, err := s.opts.Codec.Encode(ev)
	if err != nil {
		ctx.Log().Error("failed to encode event", slog.String("event_type", ev.EventType()), slog.Any("error", err))
		return st
	}

	queue := append(slices.Clip(st.Queue), frame)
	if st.Status != Open {
		return State{Status: st.Status, Queue: queue}
	}
	return s.write(ctx, queue)
}

// write sends queued frames in order. On failure the connection is closed
// and the unsent frames stay queued.
func (s *socket) write(ctx actor.Context, queue [][]byte) State {
	for i, frame := range queue {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
		if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			ctx.Log().Warn("websocket write failed", slog.Any("error", err))
			_ = s.conn.Close()
			s.conn = nil
			return State{Status: Closed, Queue: slices.Clone(queue[i:])}
		}
	}
	return State{Status: Open}
}
