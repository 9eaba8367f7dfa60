package websocket

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/codewandler/xsystem-go/core/actor"
	"github.com/codewandler/xsystem-go/core/codec"
)

const (
	defaultSinkBuffer   = 256
	defaultWriteTimeout = 10 * time.Second
)

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithBuffer sets how many frames may wait for the writer (default 256).
func WithBuffer(n int) SinkOption {
	return func(s *Sink) {
		if n > 0 {
			s.buffer = n
		}
	}
}

// WithWriteTimeout sets the deadline of a single frame write (default 10s).
func WithWriteTimeout(d time.Duration) SinkOption {
	return func(s *Sink) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Sink is a ref that writes every event it receives to a connection. Send
// only enqueues; a writer goroutine owns the connection's write side.
type Sink struct {
	conn    *websocket.Conn
	codec   codec.Codec
	log     *slog.Logger
	timeout time.Duration
	buffer  int

	out     chan []byte
	stop    chan struct{}
	once    sync.Once
	dropped atomic.Int64

	mu  sync.Mutex
	err error
}

// NewSink returns a Sink writing to conn and starts its writer. A nil codec
// uses an empty codec.Registry. Close stops the writer; the connection is
// left to the caller.
func NewSink(conn *websocket.Conn, c codec.Codec, opts ...SinkOption) *Sink {
	if c == nil {
		c = codec.NewRegistry()
	}
	s := &Sink{
		conn:    conn,
		codec:   c,
		log:     slog.Default().With(slog.String("sink", conn.RemoteAddr().String())),
		timeout: defaultWriteTimeout,
		buffer:  defaultSinkBuffer,
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.out = make(chan []byte, s.buffer)
	go s.writeLoop()
	return s
}

// Send enqueues ev without blocking. When the buffer is full the frame is
// dropped with a warning. After the first write error the sink drops all
// events; see Err.
func (s *Sink) Send(ev actor.Event) {
	if s.Err() != nil {
		return
	}
	frame, err := s.codec.Encode(ev)
	if err != nil {
		s.log.Error("failed to encode event", slog.String("event_type", ev.EventType()), slog.Any("error", err))
		return
	}

	select {
	case <-s.stop:
	case s.out <- frame:
	default:
		s.dropped.Add(1)
		s.log.Warn("sink buffer full, dropping event", slog.String("event_type", ev.EventType()))
	}
}

func (s *Sink) writeLoop() {
	for {
		select {
		case <-s.stop:
			return
		case frame := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.timeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.mu.Lock()
				s.err = err
				s.mu.Unlock()
				s.log.Warn("websocket write failed", slog.Any("error", err))
				return
			}
		}
	}
}

// Close stops the writer. Frames still buffered are discarded. It does not
// wait for a write in progress; close the connection to abort it.
func (s *Sink) Close() {
	s.once.Do(func() { close(s.stop) })
}

// Err returns the write error that disabled the sink, if any.
func (s *Sink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Dropped returns the number of events dropped on a full buffer.
func (s *Sink) Dropped() int64 { return s.dropped.Load() }

var _ actor.Ref = (*Sink)(nil)
