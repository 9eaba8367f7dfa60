package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/codewandler/xsystem-go/core/actor"
	"github.com/codewandler/xsystem-go/core/bus"
	"github.com/codewandler/xsystem-go/core/pubsub"
)

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type recorder struct {
	mu    sync.Mutex
	types []string
}

func (r *recorder) Send(ev actor.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, ev.EventType())
}

func (r *recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.types...)
}

// newServer starts a bus behind a websocket handler and records everything
// published on it.
func newServer(t *testing.T) (url string, server *recorder) {
	b := actor.Spawn(bus.New(bus.Options{}), actor.Options{Context: t.Context()})
	t.Cleanup(b.Stop)
	server = &recorder{}
	b.Send(pubsub.SubscribeTo(server))

	srv := httptest.NewServer(Handler(b, HandlerOptions{}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), server
}

func spawnSocket(t *testing.T, dial Dialer, opts Options) *actor.Actor[State] {
	a := actor.Spawn(NewSocket(dial, opts), actor.Options{Context: t.Context()})
	t.Cleanup(a.Stop)
	return a
}

func waitStatus(t *testing.T, a *actor.Actor[State], want Status) {
	t.Helper()
	require.Eventually(t, func() bool { return a.Snapshot().Status == want }, timeout, tick)
}

func TestSocket_roundtrip(t *testing.T) {
	url, server := newServer(t)
	client := &recorder{}

	a := spawnSocket(t, DialURL(url+"/?pattern=order.*", nil), Options{})
	a.Send(pubsub.SubscribeTo(client))
	waitStatus(t, a, Open)

	a.Send(actor.Named("order.created"))
	a.Send(actor.Named("user.created"))

	require.Eventually(t, func() bool { return len(server.Types()) == 2 }, timeout, tick)
	require.Equal(t, []string{"order.created", "user.created"}, server.Types())

	// the server bus publishes back to the subscribed connection
	require.Eventually(t, func() bool { return len(client.Types()) == 1 }, timeout, tick)
	require.Equal(t, []string{"order.created"}, client.Types())
}

func TestSocket_queues_until_open(t *testing.T) {
	url, server := newServer(t)
	release := make(chan struct{})
	dial := func(ctx context.Context) (*websocket.Conn, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return DialURL(url, nil)(ctx)
	}

	a := spawnSocket(t, dial, Options{})
	a.Send(actor.Named("first"))
	a.Send(actor.Named("second"))
	require.NoError(t, a.Sync(t.Context()))

	st := a.Snapshot()
	require.Equal(t, Connecting, st.Status)
	require.Len(t, st.Queue, 2)

	close(release)
	waitStatus(t, a, Open)
	require.Empty(t, a.Snapshot().Queue)
	require.Eventually(t, func() bool { return len(server.Types()) == 2 }, timeout, tick)
	require.Equal(t, []string{"first", "second"}, server.Types())
}

func TestSocket_dial_failure(t *testing.T) {
	dial := func(context.Context) (*websocket.Conn, error) { return nil, errors.New("refused") }

	a := spawnSocket(t, dial, Options{})
	waitStatus(t, a, Closed)

	a.Send(actor.Named("later"))
	require.NoError(t, a.Sync(t.Context()))
	require.Len(t, a.Snapshot().Queue, 1)
}

func TestSocket_filter(t *testing.T) {
	url, _ := newServer(t)
	client := &recorder{}

	a := spawnSocket(t, DialURL(url, nil), Options{
		Filter: func(ev actor.Event) bool { return ev.EventType() != "noise" },
	})
	a.Send(pubsub.SubscribeTo(client))
	waitStatus(t, a, Open)

	a.Send(actor.Named("noise"))
	a.Send(actor.Named("signal"))
	require.Eventually(t, func() bool { return len(client.Types()) == 1 }, timeout, tick)

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, []string{"signal"}, client.Types())
}

func TestSocket_server_close(t *testing.T) {
	url, _ := newServer(t)
	var conn *websocket.Conn
	var mu sync.Mutex
	dial := func(ctx context.Context) (*websocket.Conn, error) {
		c, err := DialURL(url, nil)(ctx)
		mu.Lock()
		conn = c
		mu.Unlock()
		return c, err
	}

	a := spawnSocket(t, dial, Options{})
	waitStatus(t, a, Open)

	mu.Lock()
	_ = conn.Close()
	mu.Unlock()
	waitStatus(t, a, Closed)
}

func TestSink(t *testing.T) {
	url, server := newServer(t)
	conn, err := DialURL(url, nil)(t.Context())
	require.NoError(t, err)

	sink := NewSink(conn, nil)
	t.Cleanup(sink.Close)
	sink.Send(actor.Named("ping"))
	require.Eventually(t, func() bool { return len(server.Types()) == 1 }, timeout, tick)
	require.NoError(t, sink.Err())

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		sink.Send(actor.Named("ping"))
		return sink.Err() != nil
	}, timeout, tick)
}

// stalledServer accepts connections and never reads from them.
func stalledServer(t *testing.T) string {
	release := make(chan struct{})
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		<-release
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSink_stalled_peer_does_not_block_publish(t *testing.T) {
	conn, err := DialURL(stalledServer(t), nil)(t.Context())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	sink := NewSink(conn, nil, WithBuffer(4))
	t.Cleanup(sink.Close)

	b := actor.Spawn(bus.New(bus.Options{}), actor.Options{Context: t.Context()})
	t.Cleanup(b.Stop)
	b.Send(pubsub.SubscribeTo(sink))

	// far more than the socket buffers of a peer that never reads
	big := actor.Raw{Type: "big", Data: []byte(`{"type":"big","pad":"` + strings.Repeat("x", 1<<20) + `"}`)}
	for range 64 {
		b.Send(big)
	}

	ctx, cancel := context.WithTimeout(t.Context(), timeout)
	defer cancel()
	require.NoError(t, b.Sync(ctx))
	require.Positive(t, sink.Dropped())
}
