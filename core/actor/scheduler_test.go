package actor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduler_bounded(t *testing.T) {
	s := NewScheduler(t.Context(), 2)

	var running, peak atomic.Int32
	for i := 0; i < 10; i++ {
		s.Schedule(func() {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		})
	}
	s.Wait()
	require.LessOrEqual(t, peak.Load(), int32(2))
}

func TestScheduler_skips_after_cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	s := NewScheduler(ctx, 0)
	cancel()

	var ran atomic.Bool
	s.Schedule(func() { ran.Store(true) })
	s.Wait()
	require.False(t, ran.Load())
}

func TestScheduler_recovers_panic(t *testing.T) {
	s := NewScheduler(t.Context(), 1)
	var after atomic.Bool
	s.Schedule(func() { panic("x") })
	s.Schedule(func() { after.Store(true) })
	s.Wait()
	require.True(t, after.Load())
}
