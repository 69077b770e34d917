package public

import (
	"github.com/akeren/waitlist-foundry/config/router"
	"github.com/akeren/waitlist-foundry/internal/log"
	"gorm.io/gorm"
)

func NewPublicController(db *gorm.DB, logger *log.Logger, projections *ProjectionCache) *router.RESTController {
	return router.NewRESTController(
		"PublicController",
		"/api/public",
		func(rs *router.RouterService, c *router.RESTController) {
			repository := NewPublicRepository(db)
			service := NewPublicService(logger, repository, projections)

			rs.AddGetHandler(c, nil, "waitlists/:slug", getPublicWaitlistHandler(service))
			rs.AddGetHandler(c, nil, "themes", listThemesHandler(service))
		},
	)
}

func getPublicWaitlistHandler(service PublicService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		response, err := service.Waitlist(ctx.Request.Context(), ctx.Param("slug"))
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.OKResult(response, "Waitlist récupérée")
	}
}

func listThemesHandler(service PublicService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		return router.OKResult(service.Themes(), "Thèmes récupérés")
	}
}
