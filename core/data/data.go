// Package data provides a behavior that stores a single value.
//
//	store := actor.Spawn(data.New("hello"), actor.Options{})
//	store.Send(data.Set[string]{Data: "hello again"})
//	store.Send(data.Reset{})
//
// With [WithStore] the value survives restarts: it is loaded from a
// kv.Store when the actor starts and written back on every change.
package data

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/codewandler/xsystem-go/core/actor"
	"github.com/codewandler/xsystem-go/ports/kv"
)

const (
	SetType   = "xsystem.data.set"
	ResetType = "xsystem.data.reset"
)

type (
	// Set replaces the stored value.
	Set[D any] struct {
		Data D `json:"data"`
	}
	// Reset restores the initial value.
	Reset struct{}
)

func (Set[D]) EventType() string { return SetType }
func (Reset) EventType() string  { return ResetType }

type Option func(*config)

type config struct {
	store   kv.Store
	key     string
	timeout time.Duration
}

// WithStore persists the value in store under key. An empty key uses the
// actor ID.
func WithStore(store kv.Store, key string) Option {
	return func(c *config) {
		c.store = store
		c.key = key
	}
}

// WithTimeout bounds every store operation (default 5s).
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New returns a behavior whose state is the stored value. Set events with a
// different type parameter than D are ignored.
func New[D any](initial D, opts ...Option) actor.Behavior[D] {
	cfg := &config{timeout: 5 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}

	b := actor.Behavior[D]{
		Initial: initial,
		Transition: func(ctx actor.Context, state D, ev actor.Event) D {
			switch e := ev.(type) {
			case Set[D]:
				cfg.save(ctx, e.Data)
				return e.Data
			case Reset:
				cfg.clear(ctx)
				return initial
			}
			return state
		},
	}

	if cfg.store != nil {
		b.Start = func(ctx actor.Context) D {
			return load(ctx, cfg, initial)
		}
	}
	return b
}

func (c *config) keyFor(ctx actor.Context) string {
	if c.key != "" {
		return c.key
	}
	return ctx.ID()
}

func load[D any](ctx actor.Context, c *config, initial D) D {
	tctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	key := c.keyFor(ctx)
	v, err := kv.Load[D](tctx, c.store, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			ctx.Log().Warn("failed to load data, using initial value", slog.String("key", key), slog.Any("error", err))
		}
		return initial
	}
	return v
}

func (c *config) save(ctx actor.Context, v any) {
	if c.store == nil {
		return
	}
	tctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	key := c.keyFor(ctx)
	if err := kv.Save(tctx, c.store, key, v); err != nil {
		ctx.Log().Error("failed to save data", slog.String("key", key), slog.Any("error", err))
	}
}

func (c *config) clear(ctx actor.Context) {
	if c.store == nil {
		return
	}
	tctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	key := c.keyFor(ctx)
	if err := c.store.Delete(tctx, key); err != nil {
		ctx.Log().Error("failed to delete data", slog.String("key", key), slog.Any("error", err))
	}
}
