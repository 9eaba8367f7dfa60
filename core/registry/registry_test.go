package registry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/xsystem-go/core/actor"
)

func spawnRegistry(t *testing.T) *actor.Actor[State] {
	reg := actor.Spawn(New(), actor.Options{ID: "registry", Context: t.Context(), MaxConcurrentTasks: -1})
	t.Cleanup(reg.Stop)
	return reg
}

func TestRegister(t *testing.T) {
	reg := spawnRegistry(t)
	ref := actor.NewRef(func(actor.Event) {})

	ok, err := Register(t.Context(), reg, "a", ref)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Register(t.Context(), reg, "a", actor.NewRef(func(actor.Event) {}))
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = Register(t.Context(), reg, "", ref)
	require.NoError(t, err)
	require.False(t, ok)

	require.Len(t, reg.Snapshot(), 1)
}

func TestRegister_response_status(t *testing.T) {
	reg := spawnRegistry(t)
	var got []Status
	origin := actor.NewRef(func(ev actor.Event) { got = append(got, ev.(RegisterResponse).Status) })
	ref := actor.NewRef(func(actor.Event) {})

	reg.Send(RegisterRequest{ID: "a", Ref: ref, Origin: origin})
	reg.Send(RegisterRequest{ID: "a", Ref: ref, Origin: origin})
	reg.Send(RegisterRequest{ID: "b", Origin: origin})
	// no origin, no reply
	reg.Send(RegisterRequest{ID: "c", Ref: ref})
	require.NoError(t, reg.Sync(t.Context()))

	require.Equal(t, []Status{Success, AlreadyExists, Failed}, got)
}

func TestLookup(t *testing.T) {
	reg := spawnRegistry(t)
	ref := actor.NewRef(func(actor.Event) {})

	_, err := Register(t.Context(), reg, "a", ref)
	require.NoError(t, err)

	got, found, err := Lookup(t.Context(), reg, "a")
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, got == ref)

	got, found, err = Lookup(t.Context(), reg, "missing")
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, got)
}

func TestUnregister(t *testing.T) {
	reg := spawnRegistry(t)
	_, err := Register(t.Context(), reg, "a", actor.NewRef(func(actor.Event) {}))
	require.NoError(t, err)
	before := reg.Snapshot()

	reg.Send(Unregister{ID: "a"})
	reg.Send(Unregister{ID: "never-registered"})
	require.NoError(t, reg.Sync(t.Context()))

	_, found, err := Lookup(t.Context(), reg, "a")
	require.NoError(t, err)
	require.False(t, found)

	// old snapshots are not modified
	require.Len(t, before, 1)
}

func TestRegister_removes_stopped_actors(t *testing.T) {
	reg := spawnRegistry(t)
	worker := actor.Spawn(actor.Stateless(func(actor.Context, actor.Event) {}), actor.Options{Context: t.Context()})

	ok, err := Register(t.Context(), reg, "worker", worker)
	require.NoError(t, err)
	require.True(t, ok)

	worker.Stop()
	require.Eventually(t, func() bool {
		_, found := reg.Snapshot()["worker"]
		return !found
	}, time.Second, 5*time.Millisecond)
}

func TestRegister_stale_done_keeps_new_entry(t *testing.T) {
	reg := spawnRegistry(t)
	first := actor.Spawn(actor.Stateless(func(actor.Context, actor.Event) {}), actor.Options{Context: t.Context()})
	second := actor.NewRef(func(actor.Event) {})

	_, err := Register(t.Context(), reg, "svc", first)
	require.NoError(t, err)
	reg.Send(Unregister{ID: "svc"})
	ok, err := Register(t.Context(), reg, "svc", second)
	require.NoError(t, err)
	require.True(t, ok)

	first.Stop()
	reg.Send(gone{id: "svc", ref: first})
	require.NoError(t, reg.Sync(t.Context()))

	got, found, err := Lookup(t.Context(), reg, "svc")
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, got == second)
}

func TestHelpers_respect_context(t *testing.T) {
	// a ref that never answers
	blackhole := actor.NewRef(func(actor.Event) {})
	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	_, err := Register(ctx, blackhole, "a", blackhole)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	_, _, err = Lookup(ctx, blackhole, "a")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRegister_watches_many_actors(t *testing.T) {
	reg := spawnRegistry(t)

	// more than the default scheduler bound
	workers := make([]*actor.Actor[struct{}], 40)
	for i := range workers {
		workers[i] = actor.Spawn(actor.Stateless(func(actor.Context, actor.Event) {}), actor.Options{Context: t.Context()})
		ok, err := Register(t.Context(), reg, fmt.Sprintf("worker-%d", i), workers[i])
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.Len(t, reg.Snapshot(), 40)

	for _, w := range workers {
		w.Stop()
	}
	require.Eventually(t, func() bool { return len(reg.Snapshot()) == 0 }, time.Second, 5*time.Millisecond)
}

func TestStop_ends_watches(t *testing.T) {
	reg := actor.Spawn(New(), actor.Options{Context: t.Context(), MaxConcurrentTasks: -1})
	worker := actor.Spawn(actor.Stateless(func(actor.Context, actor.Event) {}), actor.Options{Context: t.Context()})
	t.Cleanup(worker.Stop)

	_, err := Register(t.Context(), reg, "worker", worker)
	require.NoError(t, err)

	stopped := make(chan struct{})
	go func() {
		reg.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("registry stop blocked on a live watch")
	}
}
