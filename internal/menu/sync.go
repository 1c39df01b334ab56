package menu

import (
	"context"
	"log/slog"
	"time"

	"github.com/digital-menu/api/internal/localcache"
	"github.com/digital-menu/api/internal/metrics"
)

// Feed is a live query over available menu items ordered by creation time.
// Subscribe delivers the full result set on every change and blocks until
// ctx is done (nil) or the subscription fails (non-nil).
type Feed interface {
	Subscribe(ctx context.Context, onSnapshot func([]Item)) error
}

// Renderer receives one call per category for every snapshot.
type Renderer interface {
	RenderCategory(c Category, items []Item)
}

// Cache is the fallback store for the last received snapshot.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

type Syncer struct {
	feed     Feed
	cache    Cache
	render   Renderer
	interval time.Duration
	log      *slog.Logger
}

func NewSyncer(feed Feed, cache Cache, render Renderer, resubscribe time.Duration, log *slog.Logger) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{feed: feed, cache: cache, render: render, interval: resubscribe, log: log}
}

// Run keeps the subscription alive until ctx is cancelled. A failed
// subscription falls back to the cached snapshot and is retried after the
// resubscribe interval.
func (s *Syncer) Run(ctx context.Context) {
	for {
		err := s.feed.Subscribe(ctx, func(items []Item) { s.Apply(ctx, items) })
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.log.Error("menu subscription failed", "error", err)
			s.Fallback(ctx)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.interval):
		}
	}
}

// Apply renders a snapshot and saves it for later fallback.
func (s *Syncer) Apply(ctx context.Context, items []Item) {
	metrics.MenuSnapshots.Inc()
	s.renderAll(items)
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, localcache.KeyMenuItems, items); err != nil {
		s.log.Warn("menu cache write failed", "error", err)
	}
}

// Fallback renders the cached snapshot, or empty sections when none exists.
func (s *Syncer) Fallback(ctx context.Context) {
	metrics.MenuFallbacks.Inc()
	var items []Item
	if s.cache != nil {
		if _, err := s.cache.Get(ctx, localcache.KeyMenuItems, &items); err != nil {
			s.log.Warn("menu cache read failed", "error", err)
			items = nil
		}
	}
	s.renderAll(items)
}

func (s *Syncer) renderAll(items []Item) {
	if s.render == nil {
		return
	}
	for _, sec := range Group(items) {
		s.render.RenderCategory(sec.Category, sec.Items)
	}
}
