package router

import (
	"net/http"
	"strconv"
	"time"

	"github.com/akeren/waitlist-foundry/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultMetricsPath = "/metrics"

var responseSizeBuckets = prometheus.ExponentialBuckets(128, 4, 7)

type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	size     *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	labels := []string{"method", "route", "status"}

	m := &httpMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status.",
		}, labels),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, labels),
		size: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response body size. CSV exports dominate the upper buckets.",
			Buckets: responseSizeBuckets,
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Requests currently being served.",
		}),
	}

	reg.MustRegister(m.requests, m.duration, m.size, m.inFlight)
	return m
}

func (m *httpMetrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.inFlight.Inc()
		start := time.Now()

		c.Next()

		m.inFlight.Dec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		m.requests.WithLabelValues(method, route, status).Inc()
		m.duration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
		m.size.WithLabelValues(method, route).Observe(float64(max(c.Writer.Size(), 0)))
	}
}

// mountMetrics exposes a private registry on METRICS_PATH unless
// METRICS_ENABLED=false. It runs before the global middleware is attached, so
// scrapes skip rate limiting and request logging.
func (routerService *RouterService) mountMetrics() {
	if !utils.GetEnvBool("METRICS_ENABLED", true) {
		routerService.logger.Info("Metrics disabled (METRICS_ENABLED=false)")
		return
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	routerService.metricsRegistry = reg

	routerService.engine.Use(newHTTPMetrics(reg).middleware())

	path := utils.GetEnvTrimmedOrDefault("METRICS_PATH", defaultMetricsPath)
	routerService.engine.GET(path, gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	routerService.engine.OPTIONS(path, func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNoContent)
	})

	routerService.logger.Info("Metrics endpoint mounted", "path", path)
}
