package subscription

import (
	"github.com/akeren/waitlist-foundry/config/router"
	"github.com/akeren/waitlist-foundry/internal/log"
	"gorm.io/gorm"
)

func NewSubscriptionController(
	db *gorm.DB,
	logger *log.Logger,
	invalidator ProjectionInvalidator,
	requestsPerMinute int,
) *router.RESTController {

	return router.NewRESTController(
		"SubscriptionController",
		"/api/subscribe",
		func(rs *router.RouterService, c *router.RESTController) {
			repository := NewSubscriptionRepository(db)
			metrics := NewMetrics(rs.MetricsRegisterer())
			service := NewSubscriptionService(logger, repository, invalidator, metrics)

			limiter := rs.LimiterFactory().PerMinute("subscribe", requestsPerMinute)

			rs.AddPostHandler(c, limiter, "", subscribeHandler(service))
		},
	)
}

func subscribeHandler(service SubscriptionService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req SubscribeRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind request", "error", err)
			return router.BindErrorResult(err, &req, MessageFieldsMissing)
		}

		response, err := service.Subscribe(ctx.Request.Context(), &req)
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.CreatedResult(response, response.Message)
	}
}
