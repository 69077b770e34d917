package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/akeren/waitlist-foundry/internal/log"
	pkgredis "github.com/akeren/waitlist-foundry/pkg/redis"
	"github.com/akeren/waitlist-foundry/pkg/utils"
	"github.com/go-redis/redis/v8"
)

// Cache backs the public projection cache and, through its Redis client, the
// shared rate limiter buckets.
type Cache interface {
	// Get returns ("", nil) when a key is not found.
	Get(ctx context.Context, key string) (string, error)
	// Set uses ttl=0 for no expiry.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

var ErrCacheNotConfigured = errors.New("cache: neither REDIS_URL nor REDIS_HOST is set")

type CacheConfig struct {
	Host        string
	Port        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// NewCacheConfig reads REDIS_URL when present and the REDIS_* parts otherwise.
func NewCacheConfig() (*CacheConfig, error) {
	cc := &CacheConfig{
		Host:        utils.GetEnvTrimmed("REDIS_HOST"),
		Port:        utils.GetEnvTrimmedOrDefault("REDIS_PORT", "6379"),
		Password:    utils.GetEnvTrimmed("REDIS_PASSWORD"),
		DialTimeout: utils.GetEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
	}

	if db := utils.GetEnvPositiveInt("REDIS_DB", 0); db > 0 {
		cc.DB = db
	}

	raw := utils.GetEnvTrimmed("REDIS_URL")
	if raw == "" {
		return cc, nil
	}

	opts, err := redis.ParseURL(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	host, port, err := net.SplitHostPort(opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL address %q: %w", opts.Addr, err)
	}

	cc.Host, cc.Port, cc.Password, cc.DB = host, port, opts.Password, opts.DB
	return cc, nil
}

func (cc *CacheConfig) IsConfigured() bool {
	return cc.Host != ""
}

func (cc *CacheConfig) NewCache(logger *log.Logger) (Cache, error) {
	if !cc.IsConfigured() {
		return nil, ErrCacheNotConfigured
	}

	cache, err := pkgredis.NewRedisCache(&pkgredis.Config{
		Host:        cc.Host,
		Port:        cc.Port,
		Password:    cc.Password,
		DB:          cc.DB,
		DialTimeout: cc.DialTimeout,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Redis cache connected", "addr", net.JoinHostPort(cc.Host, cc.Port), "db", cc.DB)
	return cache, nil
}

// NewCacheOrNil degrades to no cache: public reads hit the database and rate
// limits stay in process memory.
func NewCacheOrNil(logger *log.Logger) Cache {
	cc, err := NewCacheConfig()
	if err != nil {
		logger.Error("Ignoring Redis configuration", "error", err)
		return nil
	}

	if !cc.IsConfigured() {
		logger.Info("Redis not configured; running without external cache")
		return nil
	}

	cache, err := cc.NewCache(logger)
	if err != nil {
		logger.Error("Redis unavailable; running without external cache", "error", err)
		return nil
	}
	return cache
}

func CloseCache(cache Cache, logger *log.Logger) {
	if cache == nil {
		return
	}

	if err := cache.Close(); err != nil {
		logger.Error("Failed to close cache", "error", err)
		return
	}
	logger.Info("Cache connection closed")
}
