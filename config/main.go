package config

import (
	"context"
	"strings"
	"time"

	"github.com/akeren/waitlist-foundry/config/router"
	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/internal/models"
	"github.com/akeren/waitlist-foundry/pkg/constants"
	"github.com/akeren/waitlist-foundry/pkg/storage"
	"github.com/akeren/waitlist-foundry/pkg/token"
	"github.com/akeren/waitlist-foundry/pkg/utils"
	"gorm.io/gorm"
)

type ApplicationConfig struct {
	DB              *gorm.DB
	RouterService   *router.RouterService
	Logger          *log.Logger
	Cache           Cache
	Storage         storage.ObjectStore
	Tokens          *token.Issuer
	Config          *AppConfig
	TracingShutdown func(context.Context) error
}

type AppConfig struct {
	RateLimitRequests   int
	RateLimitWindow     time.Duration
	RequestTimeout      time.Duration
	MaxBodyBytes        int64
	SubscribeRatePerMin int
	AuthRatePerMin      int
	PublicBaseURL       string
	PublicCacheTTL      time.Duration
	Auth                *AuthConfig
	Storage             *StorageConfig
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		RateLimitRequests:   utils.GetEnvPositiveInt("RATE_LIMIT_REQUESTS", constants.DefaultRateLimitRequests),
		RateLimitWindow:     utils.GetEnvDuration("RATE_LIMIT_WINDOW", constants.DefaultRateLimitWindow()),
		RequestTimeout:      utils.GetEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		MaxBodyBytes:        int64(utils.GetEnvPositiveInt("MAX_REQUEST_BODY_BYTES", 1<<20)),
		SubscribeRatePerMin: utils.GetEnvPositiveInt("SUBSCRIBE_RATE_LIMIT", constants.DefaultSubscribeRequestsPerMinute),
		AuthRatePerMin:      utils.GetEnvPositiveInt("AUTH_RATE_LIMIT", constants.DefaultAuthRequestsPerMinute),
		PublicBaseURL:       strings.TrimRight(utils.GetEnvTrimmedOrDefault("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		PublicCacheTTL:      utils.GetEnvDuration("PUBLIC_CACHE_TTL", constants.DefaultPublicCacheTTL),
		Auth:                NewAuthConfig(),
		Storage:             NewStorageConfig(),
	}
}

// Cleanup releases resources in reverse order of acquisition. It tolerates a
// partially loaded config, so startup failures call it too.
func (ac *ApplicationConfig) Cleanup() {
	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}
	if ac.Cache != nil {
		CloseCache(ac.Cache, ac.Logger)
	}
	if ac.DB != nil {
		CloseDatabase(ac.DB, ac.Logger)
	}
	if ac.TracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ac.TracingShutdown(ctx); err != nil {
			ac.Logger.Warn("Tracer provider did not flush", "error", err)
		}
	}

	ac.Logger.Info("Application cleanup completed")
}

func LoadApplicationConfiguration(logger *log.Logger, autoMigrate bool) (_ *ApplicationConfig, err error) {
	InitializeEnvFile(logger)

	appEnv := GetAppEnv()
	if autoMigrate {
		if err := ValidateAutoMigrateAllowed(appEnv); err != nil {
			return nil, err
		}
		if appEnv == "" {
			logger.Warn("APP_ENV not set; allowing --auto-migrate as development")
		}
	}

	ac := &ApplicationConfig{Logger: logger, Config: NewAppConfig()}
	defer func() {
		if err != nil {
			ac.Cleanup()
		}
	}()

	ctx := context.Background()

	if ac.Tokens, err = ac.Config.Auth.NewIssuer(logger, appEnv); err != nil {
		return nil, err
	}
	if ac.TracingShutdown, err = NewTracingConfig(appEnv).Setup(ctx, logger); err != nil {
		return nil, err
	}
	if ac.DB, err = NewDatabase(logger, nil); err != nil {
		return nil, err
	}
	if autoMigrate {
		if err = AutoMigrate(logger, ac.DB, models.ModelRegistry...); err != nil {
			return nil, err
		}
	}
	if ac.Storage, err = ac.Config.Storage.NewObjectStore(ctx, logger); err != nil {
		return nil, err
	}

	ac.Cache = NewCacheOrNil(logger)
	ac.RouterService = router.CreateRouterService(logger, ac.Cache, &router.RouterConfig{
		RateLimitRequests: ac.Config.RateLimitRequests,
		RateLimitWindow:   ac.Config.RateLimitWindow,
		RequestTimeout:    ac.Config.RequestTimeout,
		MaxBodyBytes:      ac.Config.MaxBodyBytes,
	})

	logger.Info("Application configuration loaded", "env", appEnv, "cache", ac.Cache != nil)
	return ac, nil
}
