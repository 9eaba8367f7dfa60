package nats

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/xsystem-go/core/actor"
	"github.com/codewandler/xsystem-go/core/bus"
	"github.com/codewandler/xsystem-go/core/pubsub"
)

type inbox struct {
	mu   sync.Mutex
	msgs []string
}

func (i *inbox) receive(b []byte) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.msgs = append(i.msgs, string(b))
}

func (i *inbox) Messages() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.msgs...)
}

func TestNats_Broadcast(t *testing.T) {
	connect := NewTestContainer(t)

	newBroadcast := func(t *testing.T) *Broadcast {
		b, err := NewBroadcast(BroadcastConfig{Connect: connect, Log: slog.Default(), SubjectPrefix: "test"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = b.Close() })
		return b
	}

	t.Run("channels exchange messages", func(t *testing.T) {
		tr1, tr2 := newBroadcast(t), newBroadcast(t)
		in1, in2 := &inbox{}, &inbox{}

		ch1, err := tr1.Open(t.Context(), "bus", in1.receive)
		require.NoError(t, err)
		ch2, err := tr2.Open(t.Context(), "bus", in2.receive)
		require.NoError(t, err)
		require.NoError(t, tr1.nc.Flush())
		require.NoError(t, tr2.nc.Flush())

		require.NoError(t, ch1.PostMessage(t.Context(), []byte("from-1")))
		require.NoError(t, ch2.PostMessage(t.Context(), []byte("from-2")))

		require.Eventually(t, func() bool {
			return len(in1.Messages()) == 1 && len(in2.Messages()) == 1
		}, 5*time.Second, 10*time.Millisecond)
		require.Equal(t, []string{"from-2"}, in1.Messages())
		require.Equal(t, []string{"from-1"}, in2.Messages())

		require.NoError(t, ch1.Close())
		require.ErrorIs(t, ch1.PostMessage(t.Context(), []byte("x")), bus.ErrTransportClosed)
	})

	t.Run("closed transport", func(t *testing.T) {
		tr := newBroadcast(t)
		require.NoError(t, tr.Close())
		require.ErrorIs(t, tr.Close(), bus.ErrTransportClosed)
		_, err := tr.Open(t.Context(), "bus", nil)
		require.ErrorIs(t, err, bus.ErrTransportClosed)
	})

	t.Run("event bus", func(t *testing.T) {
		tr1, tr2 := newBroadcast(t), newBroadcast(t)
		b1 := actor.Spawn(bus.New(bus.Options{Strategy: bus.Broadcast, Transport: tr1, InstanceTag: 1}), actor.Options{ID: "events", Context: t.Context()})
		b2 := actor.Spawn(bus.New(bus.Options{Strategy: bus.Broadcast, Transport: tr2, InstanceTag: 2}), actor.Options{ID: "events", Context: t.Context()})
		t.Cleanup(b1.Stop)
		t.Cleanup(b2.Stop)

		got := make(chan actor.Event, 1)
		b2.Send(pubsub.SubscribeTo(actor.NewRef(func(ev actor.Event) { got <- ev }), "order.*"))
		require.NoError(t, b1.Sync(t.Context()))
		require.NoError(t, b2.Sync(t.Context()))
		require.NoError(t, tr2.nc.Flush())

		b1.Send(actor.Named("order.created"))

		select {
		case ev := <-got:
			require.Equal(t, "order.created", ev.EventType())
		case <-time.After(5 * time.Second):
			t.Fatal("event not relayed")
		}
	})
}
