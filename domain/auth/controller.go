package auth

import (
	"net/http"
	"time"

	"github.com/akeren/waitlist-foundry/config/router"
	"github.com/akeren/waitlist-foundry/internal/identity"
	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/pkg/token"
	"gorm.io/gorm"
)

// CookieSettings controls the session cookie set on login.
type CookieSettings struct {
	Name   string
	Secure bool
}

func NewAuthController(
	db *gorm.DB,
	logger *log.Logger,
	tokens *token.Issuer,
	cookie CookieSettings,
	requestsPerMinute int,
) *router.RESTController {

	return router.NewRESTController(
		"AuthController",
		"/api/auth",
		func(rs *router.RouterService, c *router.RESTController) {
			repository := NewUserRepository(db)
			service := NewAuthService(logger, repository, tokens)
			resolve := CallerResolver(tokens, cookie.Name)

			credentialsLimiter := rs.LimiterFactory().PerMinute("auth", requestsPerMinute)

			rs.AddPostHandler(c, credentialsLimiter, "register", registerHandler(service))
			rs.AddPostHandler(c, credentialsLimiter, "login", loginHandler(service, cookie))
			rs.AddPostHandler(c, nil, "logout", logoutHandler(cookie))
			rs.AddGetHandler(c, nil, "session", sessionHandler(service, resolve))
		},
	)
}

func registerHandler(service AuthService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req RegisterRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind request", "error", err)
			return router.BindErrorResult(err, &req, MessageInvalidPayload)
		}

		response, err := service.Register(ctx.Request.Context(), &req)
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.CreatedResult(response, "Compte créé")
	}
}

func loginHandler(service AuthService, cookie CookieSettings) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req LoginRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind request", "error", err)
			return router.BindErrorResult(err, &req, MessageInvalidPayload)
		}

		response, err := service.Login(ctx.Request.Context(), &req)
		if err != nil {
			return router.AppErrorResult(err)
		}

		if cookie.Name != "" {
			ctx.SetSameSite(http.SameSiteLaxMode)
			ctx.SetCookie(cookie.Name, response.Token, int(response.ExpiresIn(time.Now()).Seconds()), "/", "", cookie.Secure, true)
		}

		return router.OKResult(response, "Connexion réussie")
	}
}

func logoutHandler(cookie CookieSettings) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		if cookie.Name != "" {
			ctx.SetSameSite(http.SameSiteLaxMode)
			ctx.SetCookie(cookie.Name, "", -1, "/", "", cookie.Secure, true)
		}
		return router.OKResult(nil, "Déconnexion réussie")
	}
}

// sessionHandler answers 200 with null data when nobody is signed in.
func sessionHandler(service AuthService, resolve identity.Resolver) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		caller, ok := resolve(ctx)
		if !ok {
			return router.OKResult(nil, "Aucune session")
		}

		session, err := service.Session(ctx.Request.Context(), caller)
		if err != nil {
			return router.AppErrorResult(err)
		}
		if session == nil {
			return router.OKResult(nil, "Aucune session")
		}

		return router.OKResult(session, "Session active")
	}
}
