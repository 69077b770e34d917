package public

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/pkg/circuitbreaker"
)

const projectionKeyPrefix = "public:waitlist:"

// Cache is the subset of the application cache the projection cache needs.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ProjectionCache keeps public projections in the shared cache. Cache
// failures never fail a request: they count against a circuit breaker and the
// caller falls back to the database. A nil Cache turns every call into a no-op.
type ProjectionCache struct {
	cache   Cache
	ttl     time.Duration
	breaker *circuitbreaker.Breaker
	logger  *log.Logger
}

func NewProjectionCache(cache Cache, ttl time.Duration, logger *log.Logger) *ProjectionCache {
	return &ProjectionCache{
		cache:  cache,
		ttl:    ttl,
		logger: logger,
		breaker: circuitbreaker.New(circuitbreaker.Settings{
			Name:             "projection-cache",
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
			OnStateChange: func(name string, from, to circuitbreaker.State) {
				logger.Warn("Circuit changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

func projectionKey(slug string) string {
	return projectionKeyPrefix + slug
}

func (p *ProjectionCache) enabled() bool {
	return p != nil && p.cache != nil && p.ttl > 0
}

// Get returns the cached projection for slug, or false on a miss.
func (p *ProjectionCache) Get(ctx context.Context, slug string) (*Projection, bool) {
	if !p.enabled() {
		return nil, false
	}

	var raw string
	err := p.breaker.Execute(func() error {
		var err error
		raw, err = p.cache.Get(ctx, projectionKey(slug))
		return err
	})
	if err != nil {
		p.logFailure(ctx, "get", slug, err)
		return nil, false
	}
	if raw == "" {
		return nil, false
	}

	var projection Projection
	if err := json.Unmarshal([]byte(raw), &projection); err != nil {
		log.GetLoggerInstanceFromContext(ctx, p.logger).Warn("Discarding unreadable cached projection", "slug", slug, "error", err)
		return nil, false
	}

	return &projection, true
}

func (p *ProjectionCache) Set(ctx context.Context, projection *Projection) {
	if !p.enabled() || projection == nil {
		return
	}

	payload, err := json.Marshal(projection)
	if err != nil {
		log.GetLoggerInstanceFromContext(ctx, p.logger).Error("Failed to encode projection", "slug", projection.Slug, "error", err)
		return
	}

	if err := p.breaker.Execute(func() error {
		return p.cache.Set(ctx, projectionKey(projection.Slug), string(payload), p.ttl)
	}); err != nil {
		p.logFailure(ctx, "set", projection.Slug, err)
	}
}

// Invalidate drops the cached projections of the given slugs. Empty slugs are ignored.
func (p *ProjectionCache) Invalidate(ctx context.Context, slugs ...string) {
	if !p.enabled() {
		return
	}

	seen := make(map[string]struct{}, len(slugs))
	for _, slug := range slugs {
		if slug == "" {
			continue
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}

		if err := p.breaker.Execute(func() error {
			return p.cache.Delete(ctx, projectionKey(slug))
		}); err != nil {
			p.logFailure(ctx, "delete", slug, err)
		}
	}
}

func (p *ProjectionCache) logFailure(ctx context.Context, op, slug string, err error) {
	logger := log.GetLoggerInstanceFromContext(ctx, p.logger)
	if errors.Is(err, circuitbreaker.ErrOpen) {
		logger.Debug("Projection cache bypassed", "op", op, "slug", slug)
		return
	}
	logger.Warn("Projection cache failure", "op", op, "slug", slug, "error", err)
}
