package bus

import (
	"context"
	"errors"
)

var (
	ErrTransportClosed = errors.New("transport closed")
	ErrNoTransport     = errors.New("broadcast strategy requires a transport")
)

// Transport connects buses across processes through named channels.
type Transport interface {
	// Open joins the channel called name. onMessage receives every payload
	// posted to that channel by other members, never the member's own posts.
	// It may be called from any goroutine and must not block. The channel is
	// closed when ctx is done.
	Open(ctx context.Context, name string, onMessage func(payload []byte)) (Channel, error)
}

// Channel is one membership in a named channel.
type Channel interface {
	PostMessage(ctx context.Context, payload []byte) error
	Close() error
}
