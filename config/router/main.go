package router

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/pkg/factory"
	"github.com/akeren/waitlist-foundry/pkg/ratelimit"
	"github.com/akeren/waitlist-foundry/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// DefaultMaxBodyBytes caps request bodies unless a route overrides it.
const DefaultMaxBodyBytes int64 = 1 << 20

type Cache interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
	MaxBodyBytes      int64
}

type RouterService struct {
	engine          *gin.Engine
	server          *http.Server
	logger          *log.Logger
	requestTimeout  time.Duration
	maxBodyBytes    int64
	cors            corsPolicy
	hsts            hstsPolicy
	rateLimiter     ratelimit.RateLimiter
	limiterFactory  *factory.LimiterFactory
	metricsRegistry prometheus.Registerer

	// Keyed by "METHOD /pattern".
	handlerToControllerMap map[string]*RESTController
	rateLimitOverrides     map[string]ratelimit.RateLimiter
	bodyLimitOverrides     map[string]BodyLimit
}

func CreateRouterService(logger *log.Logger, cache Cache, routerConfig *RouterConfig) *RouterService {
	if mode := utils.GetEnvTrimmed("GIN_MODE"); mode != "" {
		logger.Info("Setting Gin mode", "mode", mode)
		gin.SetMode(mode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	if utils.IsTracingEnabled() {
		engine.Use(otelgin.Middleware(utils.OTelServiceName()))
		logger.Info("Tracing middleware enabled")
	}

	applyTrustedProxies(engine, logger, os.Getenv("TRUSTED_PROXIES"))

	rs := &RouterService{
		engine:         engine,
		logger:         logger,
		requestTimeout: routerConfig.RequestTimeout,
		maxBodyBytes:   resolveMaxBodyBytes(routerConfig.MaxBodyBytes),
		cors:           newCORSPolicy(os.Getenv("CORS_ALLOWED_ORIGIN")),
		hsts:           newHSTSPolicy(),

		handlerToControllerMap: make(map[string]*RESTController),
		rateLimitOverrides:     make(map[string]ratelimit.RateLimiter),
		bodyLimitOverrides:     make(map[string]BodyLimit),
	}

	rs.initRateLimiting(cache, routerConfig.RateLimitRequests, routerConfig.RateLimitWindow)
	rs.mountMetrics()

	engine.Use(
		rs.securityHeadersMiddleware(),
		rs.maxBodySizeMiddleware(),
		rs.corsMiddleware(),
		rs.rateLimitMiddleware(),
		rs.timeoutMiddleware(),
		rs.correlationIDMiddleware(),
		rs.loggerInjectionMiddleware(),
		rs.requestLoggingMiddleware(),
	)

	engine.HandleMethodNotAllowed = true
	engine.RedirectTrailingSlash = true

	engine.NoRoute(func(c *gin.Context) {
		logger.WithCorrelationID(c.Request.Context()).Warn("Route not found", "path", c.Request.URL.Path)
		c.JSON(http.StatusNotFound, NotFoundResult("Route non trouvée").ToJSON())
	})

	engine.NoMethod(func(c *gin.Context) {
		logger.WithCorrelationID(c.Request.Context()).Warn("Method not allowed", "method", c.Request.Method, "path", c.Request.URL.Path)
		c.JSON(http.StatusMethodNotAllowed, ErrorResult(http.StatusMethodNotAllowed, "Méthode non autorisée", nil).ToJSON())
	})

	// Handlers run on the request goroutine, so the server timeouts are what
	// actually bound a slow request.
	rs.server = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       routerConfig.RequestTimeout,
		WriteTimeout:      routerConfig.RequestTimeout,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Router service initialized", "max_body_bytes", rs.maxBodyBytes, "cors_origins", len(rs.cors.origins))
	return rs
}

// applyTrustedProxies keeps ClientIP() on RemoteAddr unless TRUSTED_PROXIES
// names the proxies allowed to set X-Forwarded-For. "*" trusts everyone.
func applyTrustedProxies(engine *gin.Engine, logger *log.Logger, raw string) {
	proxies := parseTrustedProxiesEnv(raw)

	if err := engine.SetTrustedProxies(proxies); err != nil {
		logger.Error("Invalid TRUSTED_PROXIES; disabling trusted proxies", "error", err)
		_ = engine.SetTrustedProxies(nil)
		return
	}

	if proxies == nil {
		logger.Info("Trusted proxies disabled (TRUSTED_PROXIES not set)")
	}
}

func parseTrustedProxiesEnv(v string) []string {
	s := strings.TrimSpace(v)
	if s == "*" {
		return []string{"0.0.0.0/0", "::/0"}
	}

	proxies := splitList(s)
	if len(proxies) == 0 {
		return nil
	}
	return proxies
}

// splitList splits a comma-separated value and drops blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func resolveMaxBodyBytes(configured int64) int64 {
	if configured > 0 {
		return configured
	}
	return int64(utils.GetEnvPositiveInt("MAX_REQUEST_BODY_BYTES", int(DefaultMaxBodyBytes)))
}

// initRateLimiting shares one Redis client between the global limiter and every
// route limiter. An unreachable Redis degrades everything to in-memory buckets.
func (routerService *RouterService) initRateLimiting(cache Cache, requests int, window time.Duration) {
	var client *redis.Client
	if cache != nil {
		client = factory.RedisClientFrom(cache)
	}

	if client != nil {
		if err := client.Ping(context.Background()).Err(); err != nil {
			routerService.logger.Warn("Redis unreachable for rate limiting, using in-memory limiter", "error", err)
			client = nil
		}
	}

	routerService.limiterFactory = factory.NewLimiterFactory(client, routerService.logger)
	routerService.rateLimiter = routerService.limiterFactory.CreateRateLimiter("", requests, window)

	routerService.logger.Info("Rate limiting initialized",
		"backend", routerService.limiterFactory.Backend(),
		"requests", requests,
		"window", window,
	)
}

// LimiterFactory builds route limiters backed by the same store as the global one.
func (routerService *RouterService) LimiterFactory() *factory.LimiterFactory {
	return routerService.limiterFactory
}

// MetricsRegisterer is where domain packages register their collectors. When
// metrics are disabled it is a private registry that is never exposed.
func (routerService *RouterService) MetricsRegisterer() prometheus.Registerer {
	if routerService.metricsRegistry == nil {
		routerService.metricsRegistry = prometheus.NewRegistry()
	}
	return routerService.metricsRegistry
}

func (routerService *RouterService) GetEngine() *gin.Engine {
	return routerService.engine
}

func (routerService *RouterService) GetLogger(c *RequestContext) *log.Logger {
	return routerService.logger.WithCorrelationID(c.Request.Context())
}

func (routerService *RouterService) MountController(controller *RESTController) {
	controller.prepare(routerService, controller)

	routerService.logger.Info("Controller mounted",
		"name", controller.name,
		"path", controller.mountPoint,
		"handlers", controller.handlerCount,
	)
}

func (routerService *RouterService) RunHTTPServer() error {
	routerService.server.Addr = ":" + utils.GetEnvTrimmedOrDefault("APP_PORT", "8080")

	routerService.logger.Info("Listening", "addr", routerService.server.Addr)

	if err := routerService.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

func (routerService *RouterService) Shutdown(ctx context.Context) error {
	routerService.logger.Info("Draining HTTP connections")
	return routerService.server.Shutdown(ctx)
}

func (routerService *RouterService) Cleanup() {
	routerService.logger.Info("Router service cleanup completed")
}
