package actor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	var fallbackHits int
	tr := Match(
		On(func(ctx Context, n int, ev inc) int { return n + ev.By }),
		Otherwise(func(ctx Context, n int, ev Event) int {
			fallbackHits++
			return n
		}),
	)

	require.Equal(t, 3, tr(nil, 1, inc{By: 2}))
	require.Equal(t, 1, tr(nil, 1, reset{}))
	require.Equal(t, 1, fallbackHits)

	// same type name, different Go type: does not match the typed case
	require.Equal(t, 1, tr(nil, 1, Raw{Type: "counter.inc"}))
	require.Equal(t, 2, fallbackHits)
}

func TestMatch_no_fallback(t *testing.T) {
	tr := Match(OnType("x", func(ctx Context, s string, ev Named) string { return s + "x" }))
	require.Equal(t, "ax", tr(nil, "a", Named("x")))
	require.Equal(t, "a", tr(nil, "a", Named("y")))
}

func TestRaw_MarshalJSON(t *testing.T) {
	data, err := Raw{Type: "a"}.MarshalJSON()
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"a"}`, string(data))

	data, err = Raw{Type: "a", Data: []byte(`{"type":"a","x":1}`)}.MarshalJSON()
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"a","x":1}`, string(data))
}

func TestNewRef_identity(t *testing.T) {
	var got []Event
	fn := func(ev Event) { got = append(got, ev) }
	a, b := NewRef(fn), NewRef(fn)
	require.False(t, a == b)
	a.Send(Named("x"))
	require.Equal(t, []Event{Named("x")}, got)
}

func TestStateless(t *testing.T) {
	var n int
	b := Stateless(func(ctx Context, ev Event) { n++ })
	b.Transition(nil, struct{}{}, Named("x"))
	require.Equal(t, 1, n)
}
