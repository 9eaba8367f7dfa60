package bus

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
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

func TestMemoryTransport_delivers_to_other_members(t *testing.T) {
	tr := NewMemoryTransport()
	a, b, other := &inbox{}, &inbox{}, &inbox{}

	chA, err := tr.Open(t.Context(), "bus", a.receive)
	require.NoError(t, err)
	_, err = tr.Open(t.Context(), "bus", b.receive)
	require.NoError(t, err)
	_, err = tr.Open(t.Context(), "other", other.receive)
	require.NoError(t, err)

	require.NoError(t, chA.PostMessage(t.Context(), []byte("1")))
	require.NoError(t, chA.PostMessage(t.Context(), []byte("2")))

	require.Empty(t, a.Messages())
	require.Equal(t, []string{"1", "2"}, b.Messages())
	require.Empty(t, other.Messages())
	require.Equal(t, 2, tr.Members("bus"))
}

func TestMemoryTransport_receivers_get_copies(t *testing.T) {
	tr := NewMemoryTransport()
	var got []byte
	ch, err := tr.Open(t.Context(), "bus", nil)
	require.NoError(t, err)
	_, err = tr.Open(t.Context(), "bus", func(b []byte) { got = b })
	require.NoError(t, err)

	payload := []byte("abc")
	require.NoError(t, ch.PostMessage(t.Context(), payload))
	payload[0] = 'x'
	require.Equal(t, "abc", string(got))
}

func TestMemoryTransport_close_channel(t *testing.T) {
	tr := NewMemoryTransport()
	b := &inbox{}

	chA, err := tr.Open(t.Context(), "bus", nil)
	require.NoError(t, err)
	chB, err := tr.Open(t.Context(), "bus", b.receive)
	require.NoError(t, err)

	require.NoError(t, chB.Close())
	require.NoError(t, chB.Close())
	require.Equal(t, 1, tr.Members("bus"))

	require.NoError(t, chA.PostMessage(t.Context(), []byte("1")))
	require.Empty(t, b.Messages())
	require.ErrorIs(t, chB.PostMessage(t.Context(), []byte("1")), ErrTransportClosed)
}

func TestMemoryTransport_context_closes_channel(t *testing.T) {
	tr := NewMemoryTransport()
	ctx, cancel := context.WithCancel(t.Context())

	_, err := tr.Open(ctx, "bus", nil)
	require.NoError(t, err)
	require.Equal(t, 1, tr.Members("bus"))

	cancel()
	require.Eventually(t, func() bool { return tr.Members("bus") == 0 }, timeout, tick)
}

func TestMemoryTransport_close(t *testing.T) {
	tr := NewMemoryTransport()
	ch, err := tr.Open(t.Context(), "bus", nil)
	require.NoError(t, err)

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())

	require.ErrorIs(t, ch.PostMessage(t.Context(), []byte("x")), ErrTransportClosed)
	_, err = tr.Open(t.Context(), "bus", nil)
	require.ErrorIs(t, err, ErrTransportClosed)
}
