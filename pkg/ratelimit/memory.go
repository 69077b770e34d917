package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// sweepEvery is how many Allow calls pass between idle-bucket sweeps.
const sweepEvery = 1024

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Memory is a token bucket per key. A key may burst up to Requests at once and
// refills at Requests per Window.
type Memory struct {
	policy Policy
	every  rate.Limit

	mu      sync.Mutex
	buckets map[string]*bucket
	calls   uint64
	now     func() time.Time
}

func NewMemory(policy Policy) *Memory {
	return &Memory{
		policy:  policy,
		every:   rate.Limit(float64(policy.Requests) / policy.Window.Seconds()),
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (m *Memory) Policy() Policy {
	return m.policy
}

func (m *Memory) Allow(_ context.Context, key string) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(m.every, m.policy.Requests)}
		m.buckets[key] = b
	}
	b.lastSeen = now

	m.calls++
	if m.calls%sweepEvery == 0 {
		m.sweep(now)
	}

	if b.limiter.AllowN(now, 1) {
		return Decision{Allowed: true, Remaining: int(b.limiter.TokensAt(now))}, nil
	}

	return Decision{RetryAfter: m.untilNextToken(b.limiter.TokensAt(now))}, nil
}

func (m *Memory) untilNextToken(tokens float64) time.Duration {
	if m.every <= 0 {
		return m.policy.Window
	}
	missing := 1 - tokens
	return time.Duration(missing / float64(m.every) * float64(time.Second))
}

// sweep drops buckets idle for two windows. Caller holds mu.
func (m *Memory) sweep(now time.Time) {
	cutoff := now.Add(-2 * m.policy.Window)
	for key, b := range m.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(m.buckets, key)
		}
	}
}

func (m *Memory) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}
