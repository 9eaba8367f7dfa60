package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/codewandler/xsystem-go/adapters/nats"
	promadapter "github.com/codewandler/xsystem-go/adapters/prometheus"
	"github.com/codewandler/xsystem-go/adapters/websocket"
	"github.com/codewandler/xsystem-go/core/actor"
	"github.com/codewandler/xsystem-go/core/bus"
	"github.com/codewandler/xsystem-go/core/codec"
	"github.com/codewandler/xsystem-go/core/pubsub"
)

var relayFlags Config

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run an event bus, read events from stdin and print matching events",
	Long: `relay spawns an event bus and subscribes a printer for the given patterns.
Newline-delimited JSON events read from stdin are sent to the bus. With a
broadcast strategy the bus joins a NATS subject shared with other relays.`,
	RunE: runRelay,
}

func init() {
	f := relayCmd.Flags()
	f.StringVarP(&relayFlags.Strategy, "strategy", "s", string(bus.Direct), "direct, global-broadcast or broadcast")
	f.StringVar(&relayFlags.BusID, "bus-id", "xsys", "bus actor ID, used as channel name")
	f.StringVar(&relayFlags.NatsURL, "nats-url", "", "NATS URL (default $NATS_URL or nats://127.0.0.1:4222)")
	f.StringVar(&relayFlags.SubjectPrefix, "subject-prefix", "", "NATS subject prefix")
	f.StringSliceVarP(&relayFlags.Patterns, "pattern", "p", []string{"*"}, "patterns to print")
	f.StringVar(&relayFlags.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	f.StringVar(&relayFlags.WebsocketAddr, "ws-addr", "", "serve a WebSocket bridge to the bus on this address")
	f.StringVar(&relayFlags.LogLevel, "log-level", "info", "debug, info, warn or error")
}

func runRelay(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	cfg = mergeFlags(cmd, cfg, relayFlags)
	if err := cfg.validate(); err != nil {
		return err
	}

	level, _ := cfg.level()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return relay(ctx, cfg, os.Stdin, cmd.OutOrStdout(), log)
}

// mergeFlags overrides file values with explicitly set flags.
func mergeFlags(cmd *cobra.Command, cfg, flags Config) Config {
	changed := cmd.Flags().Changed
	if changed("strategy") {
		cfg.Strategy = flags.Strategy
	}
	if changed("bus-id") {
		cfg.BusID = flags.BusID
	}
	if changed("nats-url") {
		cfg.NatsURL = flags.NatsURL
	}
	if changed("subject-prefix") {
		cfg.SubjectPrefix = flags.SubjectPrefix
	}
	if changed("pattern") {
		cfg.Patterns = flags.Patterns
	}
	if changed("metrics-addr") {
		cfg.MetricsAddr = flags.MetricsAddr
	}
	if changed("ws-addr") {
		cfg.WebsocketAddr = flags.WebsocketAddr
	}
	if changed("log-level") {
		cfg.LogLevel = flags.LogLevel
	}
	return cfg
}

// relay runs until ctx is done.
func relay(ctx context.Context, cfg Config, in io.Reader, out io.Writer, log *slog.Logger) error {
	strategy, err := bus.ParseStrategy(cfg.Strategy)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := promadapter.NewAllMetrics(reg)

	c := codec.NewRegistry()
	opts := bus.Options{
		Strategy: strategy,
		Codec:    c,
		Logger:   log,
		Metrics:  m.Bus,
		PubSub:   []pubsub.Option{pubsub.WithMetrics(m.PubSub)},
	}

	if strategy != bus.Direct {
		connect := nats.ConnectDefault()
		if cfg.NatsURL != "" {
			connect = nats.ConnectURL(cfg.NatsURL)
		}
		tr, err := nats.NewBroadcast(nats.BroadcastConfig{Connect: connect, Log: log, SubjectPrefix: cfg.SubjectPrefix})
		if err != nil {
			return err
		}
		defer func() { _ = tr.Close() }()
		opts.Transport = tr
	}

	b := actor.Spawn(bus.New(opts), actor.Options{
		ID:      cfg.BusID,
		Context: ctx,
		Logger:  log,
		Metrics: m.Actor,
	})
	defer b.Stop()

	p := &printer{out: out, codec: c, log: log}
	pubsub.Listen(ctx, b, p.print, cfg.Patterns...)
	log.Info("relay started", slog.String("bus", cfg.BusID), slog.String("strategy", string(strategy)), slog.Any("patterns", cfg.Patterns))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return readEvents(gctx, in, c, b, log) })

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		g.Go(func() error { return serve(gctx, cfg.MetricsAddr, mux, log) })
	}
	if cfg.WebsocketAddr != "" {
		h := websocket.Handler(b, websocket.HandlerOptions{Codec: c, Log: log})
		g.Go(func() error { return serve(gctx, cfg.WebsocketAddr, h, log) })
	}

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("relay stopped")
	return nil
}

// readEvents sends every line of in to the bus. It returns nil at EOF; the
// relay keeps running.
func readEvents(ctx context.Context, in io.Reader, c codec.Codec, b actor.Ref, log *slog.Logger) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		ev, err := c.Decode(line)
		if err != nil {
			log.Warn("skipping input line", slog.Any("error", err))
			continue
		}
		b.Send(ev)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	log.Debug("stdin closed")
	return nil
}

func serve(ctx context.Context, addr string, h http.Handler, log *slog.Logger) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve %s: %w", addr, err)
	}
	return nil
}

type printer struct {
	mu    sync.Mutex
	out   io.Writer
	codec codec.Codec
	log   *slog.Logger
}

func (p *printer) print(ev actor.Event) {
	line, err := p.codec.Encode(ev)
	if err != nil {
		p.log.Warn("cannot print event", slog.String("event_type", ev.EventType()), slog.Any("error", err))
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.out, "%s\n", line)
}
