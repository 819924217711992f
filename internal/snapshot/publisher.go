package snapshot

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	redisplatform "sheetwatch/internal/platform/redis"
)

const (
	cacheKeyPublic      = "sheetwatch:snapshot:latest"
	cacheKeyPreliminary = "sheetwatch:snapshot:latest:preliminary"
	cacheTTL            = 5 * time.Minute
)

// artifact pairs the two views produced by one run so readers always see a
// mutually consistent public/preliminary pair.
type artifact struct {
	public      *Snapshot
	preliminary *Snapshot
}

// Publisher holds the latest published snapshot. The swap is atomic: readers
// either see the previous complete artifact or the new one, never a partial
// write. A configured Redis client additionally caches the JSON for other
// frontends; cache failures never fail a publish.
type Publisher struct {
	current atomic.Pointer[artifact]
	cache   *redisplatform.Client
	logger  *slog.Logger
}

type PublisherOption func(*Publisher)

func WithCache(cache *redisplatform.Client) PublisherOption {
	return func(p *Publisher) {
		p.cache = cache
	}
}

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(opts ...PublisherOption) *Publisher {
	p := &Publisher{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish swaps in a new artifact pair.
func (p *Publisher) Publish(ctx context.Context, public, preliminary *Snapshot) {
	p.current.Store(&artifact{public: public, preliminary: preliminary})

	if p.cache == nil {
		return
	}
	p.cacheSnapshot(ctx, cacheKeyPublic, public)
	p.cacheSnapshot(ctx, cacheKeyPreliminary, preliminary)
}

// Latest returns the current snapshot view, nil before the first publish.
func (p *Publisher) Latest(includePreliminary bool) *Snapshot {
	a := p.current.Load()
	if a == nil {
		return nil
	}
	if includePreliminary {
		return a.preliminary
	}
	return a.public
}

func (p *Publisher) cacheSnapshot(ctx context.Context, key string, snap *Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		p.logger.WarnContext(ctx, "snapshot cache marshal failed", "error", err)
		return
	}
	if err := p.cache.Set(ctx, key, payload, cacheTTL).Err(); err != nil {
		p.logger.WarnContext(ctx, "snapshot cache write failed", "key", key, "error", err)
	}
}
