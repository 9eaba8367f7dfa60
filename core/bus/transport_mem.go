package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// MemoryTransport is an in-process Transport. Delivery is synchronous on the
// posting goroutine, so payloads from one member arrive in order.
type MemoryTransport struct {
	mu  sync.RWMutex
	log *slog.Logger

	closed bool

	// name -> memberID -> channel
	channels map[string]map[string]*memChannel

	seq uint64
}

func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{
		log:      slog.New(slog.DiscardHandler),
		channels: make(map[string]map[string]*memChannel),
	}
}

func (t *MemoryTransport) WithLog(log *slog.Logger) *MemoryTransport {
	t.log = log.With(slog.String("transport", "mem"))
	return t
}

func (t *MemoryTransport) Open(ctx context.Context, name string, onMessage func([]byte)) (Channel, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrTransportClosed
	}
	if t.channels[name] == nil {
		t.channels[name] = make(map[string]*memChannel)
	}

	c := &memChannel{
		t:         t,
		name:      name,
		memberID:  fmt.Sprintf("member.%d", atomic.AddUint64(&t.seq, 1)),
		onMessage: onMessage,
	}
	c.log = t.log.With(slog.String("channel", name), slog.String("member", c.memberID))
	t.channels[name][c.memberID] = c
	c.log.Debug("opened")

	context.AfterFunc(ctx, func() {
		_ = c.Close()
	})

	return c, nil
}

// Members returns the number of open channels with the given name.
func (t *MemoryTransport) Members(name string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.channels[name])
}

func (t *MemoryTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	for name, members := range t.channels {
		for _, c := range members {
			c.closed.Store(true)
		}
		delete(t.channels, name)
	}

	t.log.Debug("closed")
	return nil
}

func (t *MemoryTransport) post(ctx context.Context, from *memChannel, payload []byte) error {
	t.mu.RLock()
	if t.closed {
		t.mu.RUnlock()
		return ErrTransportClosed
	}

	// copy receivers to avoid holding the lock while invoking user code
	members := t.channels[from.name]
	receivers := make([]*memChannel, 0, len(members))
	for id, c := range members {
		if id != from.memberID {
			receivers = append(receivers, c)
		}
	}
	t.mu.RUnlock()

	for _, c := range receivers {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.deliver(payload)
	}
	return nil
}

type memChannel struct {
	t         *MemoryTransport
	log       *slog.Logger
	name      string
	memberID  string
	onMessage func([]byte)
	closed    atomic.Bool
	once      sync.Once
}

func (c *memChannel) PostMessage(ctx context.Context, payload []byte) error {
	if c.closed.Load() {
		return ErrTransportClosed
	}
	return c.t.post(ctx, c, payload)
}

func (c *memChannel) deliver(payload []byte) {
	if c.closed.Load() || c.onMessage == nil {
		return
	}
	c.onMessage(append([]byte(nil), payload...))
}

func (c *memChannel) Close() error {
	c.once.Do(func() {
		c.closed.Store(true)

		c.t.mu.Lock()
		defer c.t.mu.Unlock()
		if members := c.t.channels[c.name]; members != nil {
			delete(members, c.memberID)
			if len(members) == 0 {
				delete(c.t.channels, c.name)
			}
		}
		c.log.Debug("closed")
	})
	return nil
}

var _ Transport = (*MemoryTransport)(nil)
