package waitlist

import (
	"github.com/akeren/waitlist-foundry/config/router"
	"github.com/akeren/waitlist-foundry/internal/identity"
	"github.com/akeren/waitlist-foundry/internal/log"
	"gorm.io/gorm"
)

const waitlistCreationRequestsPerMinute = 30

func NewWaitlistController(
	db *gorm.DB,
	logger *log.Logger,
	resolve identity.Resolver,
	invalidator ProjectionInvalidator,
	publicBaseURL string,
) *router.RESTController {

	return router.NewRESTController(
		"WaitlistController",
		"/api/waitlists",
		func(rs *router.RouterService, c *router.RESTController) {
			repository := NewWaitlistRepository(db)
			service := NewWaitlistService(logger, repository, invalidator, publicBaseURL)

			creationLimiter := rs.LimiterFactory().PerMinute("waitlist-create", waitlistCreationRequestsPerMinute)

			rs.AddGetHandler(c, nil, "", listWaitlistsHandler(service, resolve))
			rs.AddPostHandler(c, creationLimiter, "", createWaitlistHandler(service, resolve))
			rs.AddGetHandler(c, nil, "check-slug", checkSlugHandler(service, resolve))
			rs.AddGetHandler(c, nil, "suggest-slug", suggestSlugHandler(service, resolve))
			rs.AddGetHandler(c, nil, ":id", getWaitlistHandler(service, resolve))
			rs.AddPutHandler(c, nil, ":id", updateWaitlistHandler(service, resolve))
			rs.AddDeleteHandler(c, nil, ":id", deleteWaitlistHandler(service, resolve))
			rs.AddGetHandler(c, nil, ":id/subscribers", listSubscribersHandler(service, resolve))
			rs.AddGetHandler(c, nil, ":id/subscribers/export", exportSubscribersHandler(service, resolve))
			rs.AddGetHandler(c, nil, ":id/share", shareWaitlistHandler(service, resolve))
		},
	)
}

// ownedTarget resolves the caller and the :id parameter shared by the
// per-waitlist routes.
func ownedTarget(ctx *router.RequestContext, resolve identity.Resolver) (*identity.Identity, string, *router.ServiceResult) {
	caller, errResult := identity.Require(ctx, resolve)
	if errResult != nil {
		return nil, "", errResult
	}

	id, errResult := router.ParseUUIDParam(ctx, "id", MessageNotFound)
	if errResult != nil {
		return nil, "", errResult
	}

	return caller, id, nil
}

func listWaitlistsHandler(service WaitlistService, resolve identity.Resolver) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		caller, errResult := identity.Require(ctx, resolve)
		if errResult != nil {
			return errResult
		}

		response, err := service.List(ctx.Request.Context(), caller.UserID)
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.OKResult(response, "Waitlists récupérées")
	}
}

func createWaitlistHandler(service WaitlistService, resolve identity.Resolver) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		caller, errResult := identity.Require(ctx, resolve)
		if errResult != nil {
			return errResult
		}

		var req CreateWaitlistRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind request", "error", err)
			return router.BindErrorResult(err, &req, MessageInvalidPayload)
		}

		response, err := service.Create(ctx.Request.Context(), caller.UserID, &req)
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.CreatedResult(response, "Waitlist créée")
	}
}

func getWaitlistHandler(service WaitlistService, resolve identity.Resolver) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		caller, id, errResult := ownedTarget(ctx, resolve)
		if errResult != nil {
			return errResult
		}

		response, err := service.Get(ctx.Request.Context(), caller.UserID, id)
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.OKResult(response, "Waitlist récupérée")
	}
}

func updateWaitlistHandler(service WaitlistService, resolve identity.Resolver) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		caller, id, errResult := ownedTarget(ctx, resolve)
		if errResult != nil {
			return errResult
		}

		var req UpdateWaitlistRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind request", "error", err)
			return router.BindErrorResult(err, &req, MessageInvalidPayload)
		}

		response, err := service.Update(ctx.Request.Context(), caller.UserID, id, &req)
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.OKResult(response, "Waitlist mise à jour")
	}
}

func deleteWaitlistHandler(service WaitlistService, resolve identity.Resolver) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		caller, id, errResult := ownedTarget(ctx, resolve)
		if errResult != nil {
			return errResult
		}

		if err := service.Delete(ctx.Request.Context(), caller.UserID, id); err != nil {
			return router.AppErrorResult(err)
		}

		return router.OKResult(nil, "Waitlist supprimée")
	}
}

func listSubscribersHandler(service WaitlistService, resolve identity.Resolver) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		caller, id, errResult := ownedTarget(ctx, resolve)
		if errResult != nil {
			return errResult
		}

		response, err := service.Subscribers(ctx.Request.Context(), caller.UserID, id)
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.OKResult(response, "Abonnés récupérés")
	}
}

func exportSubscribersHandler(service WaitlistService, resolve identity.Resolver) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		caller, id, errResult := ownedTarget(ctx, resolve)
		if errResult != nil {
			return errResult
		}

		export, err := service.Export(ctx.Request.Context(), caller.UserID, id)
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.AttachmentResult(export.FileName, export.ContentType, export.Body)
	}
}

func checkSlugHandler(service WaitlistService, resolve identity.Resolver) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		if _, errResult := identity.Require(ctx, resolve); errResult != nil {
			return errResult
		}

		response, err := service.CheckSlug(ctx.Request.Context(), ctx.Query("slug"), ctx.Query("excludeId"))
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.OKResult(response, response.Message)
	}
}

func suggestSlugHandler(service WaitlistService, resolve identity.Resolver) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		if _, errResult := identity.Require(ctx, resolve); errResult != nil {
			return errResult
		}

		response, err := service.SuggestSlug(ctx.Request.Context(), ctx.Query("title"), ctx.Query("excludeId"))
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.OKResult(response, response.Message)
	}
}

func shareWaitlistHandler(service WaitlistService, resolve identity.Resolver) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		caller, id, errResult := ownedTarget(ctx, resolve)
		if errResult != nil {
			return errResult
		}

		response, err := service.Share(ctx.Request.Context(), caller.UserID, id)
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.OKResult(response, "Liens de partage")
	}
}
