package monitoring

import (
	"context"
	"net/http"
	"time"

	"github.com/akeren/waitlist-foundry/config/router"
	"github.com/akeren/waitlist-foundry/internal/log"
	"gorm.io/gorm"
)

const (
	monitoringRequestsPerMinute = 10
	checkTimeout                = 2 * time.Second
)

func databasePinger(db *gorm.DB) Pinger {
	if db == nil {
		return nil
	}
	return PingFunc(func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
}

// NewMonitoringController serves liveness at / and dependency health at
// /health. /health/ready answers 503 until the database is reachable.
func NewMonitoringController(db *gorm.DB, logger *log.Logger, cache Pinger, storage Pinger) *router.RESTController {
	components := map[string]Pinger{
		componentDatabase: databasePinger(db),
		componentCache:    cache,
		componentStorage:  storage,
	}

	return router.NewRESTController("MonitoringController", "/", func(rs *router.RouterService, controller *router.RESTController) {
		controller.RateLimitWith(rs.LimiterFactory().PerMinute("monitoring", monitoringRequestsPerMinute))
		p := newProber(components, rs.MetricsRegisterer())

		rs.AddGetHandler(controller, nil, "", func(*router.RequestContext) *router.ServiceResult {
			return router.OKResult("Monitoring endpoint is operational.", "Monitoring successful")
		})

		rs.AddGetHandler(controller, nil, "health", func(c *router.RequestContext) *router.ServiceResult {
			ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
			defer cancel()

			return router.OKResult(p.status(ctx, rs.GetLogger(c)), "waitlist-foundry health check completed")
		})

		rs.AddGetHandler(controller, nil, "health/ready", func(c *router.RequestContext) *router.ServiceResult {
			ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
			defer cancel()

			status := p.status(ctx, rs.GetLogger(c))
			if status.Database == 0 {
				return &router.ServiceResult{StatusCode: http.StatusServiceUnavailable, Data: status, Message: "Base de données indisponible"}
			}
			return router.OKResult(status, "ready")
		})
	})
}
