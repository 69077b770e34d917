package public

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/pkg/circuitbreaker"
	"github.com/akeren/waitlist-foundry/pkg/logo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu      sync.Mutex
	values  map[string]string
	ttls    map[string]time.Duration
	fail    error
	getHits int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getHits++
	if m.fail != nil {
		return "", m.fail
	}
	return m.values[key], nil
}

func (m *memoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.values[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	delete(m.values, key)
	return nil
}

func sampleProjection(slug string) *Projection {
	launch := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	return &Projection{
		ID:               "wl-1",
		Slug:             slug,
		Title:            "Acme",
		Headline:         "Acme",
		Theme:            "light-minimal",
		PrimaryColor:     "#000000",
		BackgroundColor:  "#ffffff",
		LogoURL:          logo.Icon(3),
		CollectName:      true,
		CountdownEnabled: true,
		CountdownDate:    &launch,
		SubscriberCount:  7,
	}
}

func TestProjectionCache_RoundTrip(t *testing.T) {
	store := newMemoryCache()
	cache := NewProjectionCache(store, time.Minute, log.NewLoggerWithJSONOutput())
	ctx := context.Background()

	_, ok := cache.Get(ctx, "acme")
	assert.False(t, ok)

	cache.Set(ctx, sampleProjection("acme"))
	assert.Equal(t, time.Minute, store.ttls["public:waitlist:acme"])

	got, ok := cache.Get(ctx, "acme")
	require.True(t, ok)
	assert.Equal(t, "Acme", got.Title)
	assert.Equal(t, int64(7), got.SubscriberCount)
	icon, isIcon := got.LogoURL.IconIndex()
	assert.True(t, isIcon)
	assert.Equal(t, 3, icon)
	require.NotNil(t, got.CountdownDate)
	assert.True(t, got.CountdownDate.Equal(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))

	cache.Invalidate(ctx, "acme", "", "acme")
	_, ok = cache.Get(ctx, "acme")
	assert.False(t, ok)
}

func TestProjectionCache_DisabledIsNoop(t *testing.T) {
	ctx := context.Background()

	for name, cache := range map[string]*ProjectionCache{
		"nil cache": NewProjectionCache(nil, time.Minute, log.NewLoggerWithJSONOutput()),
		"zero ttl":  NewProjectionCache(newMemoryCache(), 0, log.NewLoggerWithJSONOutput()),
		"nil value": nil,
	} {
		t.Run(name, func(t *testing.T) {
			cache.Set(ctx, sampleProjection("acme"))
			cache.Invalidate(ctx, "acme")
			_, ok := cache.Get(ctx, "acme")
			assert.False(t, ok)
		})
	}
}

func TestProjectionCache_OpensCircuitOnFailures(t *testing.T) {
	store := newMemoryCache()
	store.fail = errors.New("connection refused")
	cache := NewProjectionCache(store, time.Minute, log.NewLoggerWithJSONOutput())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, ok := cache.Get(ctx, "acme")
		assert.False(t, ok)
	}
	assert.Equal(t, circuitbreaker.Open, cache.breaker.State())

	hits := store.getHits
	_, ok := cache.Get(ctx, "acme")
	assert.False(t, ok)
	assert.Equal(t, hits, store.getHits, "open circuit skips the cache")
}

func TestProjectionCache_IgnoresCorruptEntries(t *testing.T) {
	store := newMemoryCache()
	store.values["public:waitlist:acme"] = "{not json"
	cache := NewProjectionCache(store, time.Minute, log.NewLoggerWithJSONOutput())

	_, ok := cache.Get(context.Background(), "acme")
	assert.False(t, ok)
}
