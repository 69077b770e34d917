package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const redisTimeout = 2 * time.Second

// slidingWindow keeps one sorted-set member per accepted request, scored in
// milliseconds. It returns {allowed, remaining, retryAfterMs}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

local count = redis.call('ZCARD', key)
if count < limit then
	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, window)
	return {1, limit - count - 1, 0}
end

local wait = window
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if oldest[2] then
	wait = tonumber(oldest[2]) + window - now
end
return {0, 0, wait}
`)

// Redis shares counters between every instance pointing at the same server.
// The client belongs to the application config, which closes it.
type Redis struct {
	client *redis.Client
	policy Policy
	prefix string
	logger Logger
}

func NewRedis(client *redis.Client, policy Policy, keyPrefix string, logger Logger) *Redis {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &Redis{client: client, policy: policy, prefix: keyPrefix, logger: logger}
}

func (r *Redis) Policy() Policy {
	return r.policy
}

func (r *Redis) key(key string) string {
	if strings.HasPrefix(key, r.prefix) {
		return key
	}
	return r.prefix + key
}

func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	member, err := gonanoid.New()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: member id: %w", err)
	}

	fullKey := r.key(key)
	raw, err := slidingWindow.Run(ctx, r.client, []string{fullKey},
		time.Now().UnixMilli(), r.policy.Window.Milliseconds(), r.policy.Requests, member).Result()
	if err != nil {
		if r.logger != nil {
			r.logger.Error("Rate limit script failed", "key", fullKey, "error", err)
		}
		return Decision{}, fmt.Errorf("ratelimit: redis: %w", err)
	}
	return parseScriptResult(raw)
}

func parseScriptResult(raw any) (Decision, error) {
	values, ok := raw.([]any)
	if !ok || len(values) != 3 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected script result %v", raw)
	}

	var nums [3]int64
	for i, v := range values {
		n, ok := v.(int64)
		if !ok {
			return Decision{}, fmt.Errorf("ratelimit: unexpected script value %T", v)
		}
		nums[i] = n
	}

	return Decision{
		Allowed:    nums[0] == 1,
		Remaining:  int(nums[1]),
		RetryAfter: time.Duration(nums[2]) * time.Millisecond,
	}, nil
}
