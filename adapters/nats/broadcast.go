package nats

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	gonanoid "github.com/matoous/go-nanoid/v2"
	natsgo "github.com/nats-io/nats.go"

	"github.com/codewandler/xsystem-go/core/bus"
)

// originHeader identifies the channel that posted a message.
const originHeader = "Xsystem-Origin"

type BroadcastConfig struct {
	Connect       Connector    // Connect is used to create the underlying NATS connection. If nil, ConnectDefault() is used.
	Log           *slog.Logger // Log for diagnostics (optional)
	SubjectPrefix string       // SubjectPrefix for bus subjects, e.g. "xsystem" -> xsystem.bus.<name>
}

// Broadcast is a bus.Transport on NATS core subjects. Delivery is
// at-most-once.
type Broadcast struct {
	nc      *natsgo.Conn
	closeNc closeFunc
	log     *slog.Logger
	prefix  string

	mu       sync.Mutex
	channels map[*channel]struct{}

	closed atomic.Bool
}

func NewBroadcast(cfg BroadcastConfig) (*Broadcast, error) {
	connFn := cfg.Connect
	if connFn == nil {
		connFn = ConnectDefault()
	}

	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = "xsystem"
	}

	nc, closeNc, err := connFn()
	if err != nil {
		return nil, fmt.Errorf("nats: connect: %w", err)
	}

	return &Broadcast{
		nc:       nc,
		closeNc:  closeNc,
		log:      log.With(slog.String("transport", "nats")),
		prefix:   prefix,
		channels: make(map[*channel]struct{}),
	}, nil
}

func (b *Broadcast) subject(name string) string {
	return b.prefix + ".bus." + name
}

func (b *Broadcast) Open(ctx context.Context, name string, onMessage func([]byte)) (bus.Channel, error) {
	if b.closed.Load() {
		return nil, bus.ErrTransportClosed
	}

	c := &channel{
		b:       b,
		subject: b.subject(name),
		origin:  gonanoid.Must(),
	}
	c.log = b.log.With(slog.String("subject", c.subject), slog.String("origin", c.origin))

	sub, err := b.nc.Subscribe(c.subject, func(msg *natsgo.Msg) {
		if msg.Header.Get(originHeader) == c.origin {
			return
		}
		if onMessage != nil {
			onMessage(msg.Data)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("nats: subscribe %s: %w", c.subject, err)
	}
	c.sub = sub

	b.mu.Lock()
	b.channels[c] = struct{}{}
	b.mu.Unlock()
	c.log.Debug("opened")

	context.AfterFunc(ctx, func() {
		_ = c.Close()
	})

	return c, nil
}

func (b *Broadcast) Close() error {
	if b.closed.Swap(true) {
		return bus.ErrTransportClosed
	}
	b.mu.Lock()
	channels := make([]*channel, 0, len(b.channels))
	for c := range b.channels {
		channels = append(channels, c)
	}
	b.mu.Unlock()

	for _, c := range channels {
		_ = c.Close()
	}
	if b.nc != nil {
		_ = b.nc.Drain()
		b.closeNc()
	}
	return nil
}

type channel struct {
	b       *Broadcast
	log     *slog.Logger
	subject string
	origin  string
	sub     *natsgo.Subscription

	closed atomic.Bool
	once   sync.Once
}

func (c *channel) PostMessage(_ context.Context, payload []byte) error {
	if c.closed.Load() || c.b.closed.Load() {
		return bus.ErrTransportClosed
	}
	msg := natsgo.NewMsg(c.subject)
	msg.Header.Set(originHeader, c.origin)
	msg.Data = payload
	if err := c.b.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats: publish %s: %w", c.subject, err)
	}
	return nil
}

func (c *channel) Close() error {
	var err error
	c.once.Do(func() {
		c.closed.Store(true)
		err = c.sub.Unsubscribe()
		c.b.mu.Lock()
		delete(c.b.channels, c)
		c.b.mu.Unlock()
		c.log.Debug("closed")
	})
	return err
}

var _ bus.Transport = (*Broadcast)(nil)
