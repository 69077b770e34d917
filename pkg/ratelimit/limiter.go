// Package ratelimit provides per-key request limiters. Single instances count
// in process with token buckets; several instances share a Redis sliding window.
package ratelimit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const DefaultKeyPrefix = "ratelimit:"

type Logger interface {
	Error(msg string, args ...any)
}

// Policy is the number of requests a key may make per window.
type Policy struct {
	Requests int
	Window   time.Duration
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	// RetryAfter is zero when the request was allowed.
	RetryAfter time.Duration
}

type RateLimiter interface {
	Policy() Policy
	Allow(ctx context.Context, key string) (Decision, error)
}

type Options struct {
	Policy Policy
	// Redis selects the shared backend. Nil keeps counters in memory.
	Redis     *redis.Client
	KeyPrefix string
	Logger    Logger
}

func New(opts Options) RateLimiter {
	if opts.Redis != nil {
		return NewRedis(opts.Redis, opts.Policy, opts.KeyPrefix, opts.Logger)
	}
	return NewMemory(opts.Policy)
}
