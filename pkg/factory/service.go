package factory

import (
	"context"
	"time"

	"github.com/akeren/waitlist-foundry/pkg/ratelimit"
	"github.com/go-redis/redis/v8"
)

type Cache interface {
	Ping(ctx context.Context) error
}

type RedisClientProvider interface {
	GetClient() *redis.Client
}

type RateLimiterFactory interface {
	CreateRateLimiter(name string, requests int, window time.Duration) ratelimit.RateLimiter
	PerMinute(name string, requests int) ratelimit.RateLimiter
}

// LimiterFactory builds route-level limiters. All limiters it creates share
// one Redis client when available and fall back to in-memory buckets otherwise.
type LimiterFactory struct {
	redis  *redis.Client
	logger ratelimit.Logger
}

func NewLimiterFactory(client *redis.Client, logger ratelimit.Logger) *LimiterFactory {
	return &LimiterFactory{redis: client, logger: logger}
}

// RedisClientFrom returns the client behind cache, or nil for caches that are not Redis.
func RedisClientFrom(cache Cache) *redis.Client {
	if provider, ok := cache.(RedisClientProvider); ok {
		return provider.GetClient()
	}
	return nil
}

func NewLimiterFactoryFromCache(cache Cache, logger ratelimit.Logger) *LimiterFactory {
	var client *redis.Client
	if cache != nil {
		client = RedisClientFrom(cache)
	}
	return NewLimiterFactory(client, logger)
}

func (f *LimiterFactory) UsesRedis() bool {
	return f.redis != nil
}

func (f *LimiterFactory) Backend() string {
	if f.UsesRedis() {
		return "redis"
	}
	return "memory"
}

// CreateRateLimiter namespaces Redis keys with the limiter name.
func (f *LimiterFactory) CreateRateLimiter(name string, requests int, window time.Duration) ratelimit.RateLimiter {
	prefix := ratelimit.DefaultKeyPrefix
	if name != "" {
		prefix += name + ":"
	}

	return ratelimit.New(ratelimit.Options{
		Policy:    ratelimit.Policy{Requests: requests, Window: window},
		Redis:     f.redis,
		KeyPrefix: prefix,
		Logger:    f.logger,
	})
}

func (f *LimiterFactory) PerMinute(name string, requests int) ratelimit.RateLimiter {
	return f.CreateRateLimiter(name, requests, time.Minute)
}
