package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_BurstThenLimited(t *testing.T) {
	limiter := NewMemory(Policy{Requests: 3, Window: time.Minute})
	ctx := context.Background()

	for i, wantRemaining := range []int{2, 1, 0} {
		d, err := limiter.Allow(ctx, "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i+1)
		assert.Equal(t, wantRemaining, d.Remaining)
	}

	d, err := limiter.Allow(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Positive(t, d.RetryAfter)
	assert.LessOrEqual(t, d.RetryAfter, 20*time.Second)
}

func TestMemory_KeysAreIndependent(t *testing.T) {
	limiter := NewMemory(Policy{Requests: 1, Window: time.Second})
	ctx := context.Background()

	d, _ := limiter.Allow(ctx, "client-a")
	assert.True(t, d.Allowed)
	d, _ = limiter.Allow(ctx, "client-a")
	assert.False(t, d.Allowed)
	d, _ = limiter.Allow(ctx, "client-b")
	assert.True(t, d.Allowed)
}

func TestMemory_RefillsOverTime(t *testing.T) {
	limiter := NewMemory(Policy{Requests: 1, Window: time.Second})
	now := time.Unix(1_700_000_000, 0)
	limiter.now = func() time.Time { return now }

	d, _ := limiter.Allow(context.Background(), "k")
	require.True(t, d.Allowed)
	d, _ = limiter.Allow(context.Background(), "k")
	require.False(t, d.Allowed)

	now = now.Add(time.Second)
	d, _ = limiter.Allow(context.Background(), "k")
	assert.True(t, d.Allowed)
}

func TestMemory_SweepsIdleBuckets(t *testing.T) {
	limiter := NewMemory(Policy{Requests: 5, Window: time.Second})
	now := time.Unix(1_700_000_000, 0)
	limiter.now = func() time.Time { return now }

	_, _ = limiter.Allow(context.Background(), "idle")
	now = now.Add(time.Minute)
	for range sweepEvery {
		_, _ = limiter.Allow(context.Background(), "busy")
	}

	assert.Equal(t, 1, limiter.size())
}

func TestNew_SelectsBackend(t *testing.T) {
	limiter := New(Options{Policy: Policy{Requests: 20, Window: time.Minute}})

	_, ok := limiter.(*Memory)
	assert.True(t, ok)
	assert.Equal(t, Policy{Requests: 20, Window: time.Minute}, limiter.Policy())
}

func TestRedis_KeyPrefix(t *testing.T) {
	limiter := NewRedis(nil, Policy{Requests: 5, Window: time.Minute}, "ratelimit:subscribe:", nil)
	assert.Equal(t, "ratelimit:subscribe:10.0.0.1", limiter.key("10.0.0.1"))
	assert.Equal(t, "ratelimit:subscribe:10.0.0.1", limiter.key("ratelimit:subscribe:10.0.0.1"))

	fallback := NewRedis(nil, Policy{Requests: 5, Window: time.Minute}, "", nil)
	assert.Equal(t, DefaultKeyPrefix+"10.0.0.1", fallback.key("10.0.0.1"))
}

func TestParseScriptResult(t *testing.T) {
	d, err := parseScriptResult([]any{int64(1), int64(4), int64(0)})
	require.NoError(t, err)
	assert.Equal(t, Decision{Allowed: true, Remaining: 4}, d)

	d, err = parseScriptResult([]any{int64(0), int64(0), int64(1500)})
	require.NoError(t, err)
	assert.Equal(t, Decision{RetryAfter: 1500 * time.Millisecond}, d)

	_, err = parseScriptResult(int64(1))
	assert.Error(t, err)

	_, err = parseScriptResult([]any{int64(1), "x", int64(0)})
	assert.Error(t, err)
}
