package router

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/akeren/waitlist-foundry/pkg/ratelimit"
	"github.com/gin-gonic/gin"
)

// limiterFor picks the most specific limiter: handler override, then
// controller override, then the global one. ok is false for routes that were
// never registered through a controller.
func (routerService *RouterService) limiterFor(c *gin.Context) (limiter ratelimit.RateLimiter, ok bool) {
	handlerKey := routerService.keyForPathAndMethod(c.FullPath(), c.Request.Method)

	controller, found := routerService.handlerToControllerMap[handlerKey]
	if !found || controller == nil {
		return nil, false
	}

	if override, found := routerService.rateLimitOverrides[handlerKey]; found {
		return override, true
	}
	if controller.limiter != nil {
		return controller.limiter, true
	}
	return routerService.rateLimiter, true
}

func retryAfterSeconds(wait time.Duration) int {
	return max(1, int(math.Ceil(wait.Seconds())))
}

func setRateLimitHeaders(c *gin.Context, policy ratelimit.Policy, remaining int) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(policy.Requests))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
	c.Header("X-RateLimit-Window", policy.Window.String())
}

// rateLimitMiddleware keys buckets by client IP. A limiter backend failure lets
// the request through so a Redis outage never takes the API down with it.
func (routerService *RouterService) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter, ok := routerService.limiterFor(c)
		if !ok {
			routerService.logger.Error("Request reached a route with no owning controller", "path", c.Request.URL.Path, "method", c.Request.Method)
			c.AbortWithStatusJSON(http.StatusNotFound, NotFoundResult("Route non trouvée").ToJSON())
			return
		}

		clientIP := c.ClientIP()
		policy := limiter.Policy()

		decision, err := limiter.Allow(c.Request.Context(), clientIP)
		if err != nil {
			routerService.logger.Error("Rate limiter error", "error", err, "client_ip", clientIP)
			c.Next()
			return
		}
		setRateLimitHeaders(c, policy, decision.Remaining)

		if decision.Allowed {
			c.Next()
			return
		}

		wait := decision.RetryAfter
		if wait <= 0 {
			wait = policy.Window
		}
		retryAfter := strconv.Itoa(retryAfterSeconds(wait))
		routerService.logger.Warn("Rate limit exceeded", "client_ip", clientIP, "route", c.FullPath())

		c.Header("Retry-After", retryAfter)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, TooManyRequestsResult(RateLimitResponse{
			Limit:      policy.Requests,
			Window:     policy.Window.String(),
			RetryAfter: retryAfter,
		}).ToJSON())
	}
}
