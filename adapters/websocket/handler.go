package websocket

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/codewandler/xsystem-go/core/actor"
	"github.com/codewandler/xsystem-go/core/codec"
	"github.com/codewandler/xsystem-go/core/pubsub"
)

type HandlerOptions struct {
	Codec    codec.Codec
	Upgrader websocket.Upgrader
	Log      *slog.Logger
	// Sink configures the per-connection Sink.
	Sink []SinkOption
}

// Handler upgrades requests to WebSocket connections and bridges them to
// bus: the connection is subscribed to the patterns given as "pattern" query
// parameters (default: everything), and every event read from it is sent to
// bus.
func Handler(bus actor.Ref, opts HandlerOptions) http.Handler {
	if opts.Codec == nil {
		opts.Codec = codec.NewRegistry()
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("handler", "websocket"))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := opts.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("upgrade failed", slog.Any("error", err))
			return
		}
		defer func() { _ = conn.Close() }()

		sink := NewSink(conn, opts.Codec, opts.Sink...)
		defer sink.Close()
		bus.Send(pubsub.SubscribeTo(sink, r.URL.Query()["pattern"]...))
		defer bus.Send(pubsub.UnsubscribeFrom(sink))
		log.Debug("client connected", slog.String("remote", r.RemoteAddr))

		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				log.Debug("client disconnected", slog.String("remote", r.RemoteAddr), slog.Any("error", err))
				return
			}
			if mt != websocket.TextMessage {
				continue
			}
			ev, err := opts.Codec.Decode(data)
			if err != nil {
				log.Debug("dropping frame", slog.Any("error", err))
				continue
			}
			bus.Send(ev)
		}
	})
}
