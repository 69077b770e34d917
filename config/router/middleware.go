package router

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/pkg/utils"
	"github.com/gin-gonic/gin"
)

const (
	correlationHeader   = "X-Correlation-ID"
	maxCorrelationIDLen = 128
)

const (
	corsAllowHeaders = "Content-Type, Content-Length, Accept, Accept-Encoding, Authorization, Cache-Control, Origin, X-Requested-With, X-Correlation-ID"
	corsAllowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
)

// corsPolicy allows credentialed requests from a fixed origin list. The
// dashboard relies on the session cookie, so "*" echoes the caller's origin
// rather than sending a literal wildcard.
type corsPolicy struct {
	origins   map[string]struct{}
	anyOrigin bool
}

func newCORSPolicy(raw string) corsPolicy {
	policy := corsPolicy{origins: make(map[string]struct{})}
	for _, origin := range splitList(raw) {
		if origin == "*" {
			policy.anyOrigin = true
			continue
		}
		policy.origins[strings.TrimRight(origin, "/")] = struct{}{}
	}
	return policy
}

func (p corsPolicy) enabled() bool {
	return p.anyOrigin || len(p.origins) > 0
}

func (p corsPolicy) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if p.anyOrigin {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

type hstsPolicy struct {
	enabled bool
	value   string
}

// newHSTSPolicy defaults to on in production. HSTS_ENABLED, HSTS_MAX_AGE and
// HSTS_INCLUDE_SUBDOMAINS override it.
func newHSTSPolicy() hstsPolicy {
	appEnv := strings.ToLower(utils.GetEnvTrimmed("APP_ENV"))
	enabled := utils.GetEnvBool("HSTS_ENABLED", appEnv == "production" || appEnv == "prod")

	value := fmt.Sprintf("max-age=%d", utils.GetEnvPositiveInt("HSTS_MAX_AGE", 31536000))
	if utils.GetEnvBool("HSTS_INCLUDE_SUBDOMAINS", true) {
		value += "; includeSubDomains"
	}

	return hstsPolicy{enabled: enabled, value: value}
}

// applies only to requests that arrived over TLS, directly or via a proxy.
func (p hstsPolicy) applies(c *gin.Context) bool {
	if !p.enabled {
		return false
	}
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")), "https")
}

func (routerService *RouterService) securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if routerService.hsts.applies(c) {
			h.Set("Strict-Transport-Security", routerService.hsts.value)
		}
		c.Next()
	}
}

func (routerService *RouterService) maxBodySizeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := BodyLimit{MaxBytes: routerService.maxBodyBytes}
		if override, ok := routerService.bodyLimitOverrides[routerService.keyForPathAndMethod(c.FullPath(), c.Request.Method)]; ok {
			limit = override
		}

		if c.Request.ContentLength > limit.MaxBytes {
			rejection := limit.rejection()
			c.AbortWithStatusJSON(rejection.StatusCode, rejection.ToJSON())
			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit.MaxBytes)
		}
		c.Next()
	}
}

// corsMiddleware leaves disallowed origins without CORS headers and lets the
// browser reject them.
func (routerService *RouterService) corsMiddleware() gin.HandlerFunc {
	policy := routerService.cors
	if !policy.enabled() {
		routerService.logger.Warn("CORS_ALLOWED_ORIGIN not set; cross-origin requests will be refused by browsers")
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if !policy.allows(origin) {
			if origin != "" {
				routerService.logger.Debug("CORS origin not allowed", "origin", origin)
			}
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)
		h.Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// timeoutMiddleware puts a deadline on the request context. The chain stays on
// the request goroutine because gin.Context is not safe for concurrent use.
func (routerService *RouterService) timeoutMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), routerService.requestTimeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			routerService.logger.WithCorrelationID(ctx).Warn("Request exceeded its deadline", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusRequestTimeout, ErrorResult(
				http.StatusRequestTimeout,
				"Délai de la requête dépassé",
				nil,
			).ToJSON())
		}
	}
}

// validCorrelationID accepts printable ASCII without spaces, up to
// maxCorrelationIDLen bytes. Anything else is replaced with a fresh ID.
func validCorrelationID(id string) bool {
	if id == "" || len(id) > maxCorrelationIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '!' || id[i] > '~' {
			return false
		}
	}
	return true
}

func (routerService *RouterService) correlationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(correlationHeader))
		if !validCorrelationID(id) {
			id = log.GenerateCorrelationID()
		}

		c.Request = c.Request.WithContext(log.ContextWithCorrelationID(c.Request.Context(), id))
		c.Header(correlationHeader, id)
		c.Next()
	}
}

func (routerService *RouterService) loggerInjectionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := routerService.logger.WithCorrelationID(c.Request.Context())
		c.Request = c.Request.WithContext(log.ContextWithLogger(c.Request.Context(), logger))
		c.Next()
	}
}

func (routerService *RouterService) requestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", status,
			"bytes", c.Writer.Size(),
			"latency_ms", time.Since(start).Milliseconds(),
			"remote_addr", c.ClientIP(),
		}

		logger := routerService.logger.WithCorrelationID(c.Request.Context())
		if status >= http.StatusInternalServerError {
			logger.Error("HTTP request", attrs...)
			return
		}
		logger.Info("HTTP request", attrs...)
	}
}
