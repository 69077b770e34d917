package domain

import (
	"github.com/akeren/waitlist-foundry/config"
	"github.com/akeren/waitlist-foundry/domain/auth"
	"github.com/akeren/waitlist-foundry/domain/monitoring"
	"github.com/akeren/waitlist-foundry/domain/public"
	"github.com/akeren/waitlist-foundry/domain/subscription"
	"github.com/akeren/waitlist-foundry/domain/upload"
	"github.com/akeren/waitlist-foundry/domain/waitlist"
	"github.com/akeren/waitlist-foundry/pkg/storage"
)

func SetupCoreDomain(appConfig *config.ApplicationConfig) {
	rs := appConfig.RouterService
	settings := appConfig.Config

	resolve := auth.CallerResolver(appConfig.Tokens, settings.Auth.CookieName)

	var cache public.Cache
	if appConfig.Cache != nil {
		cache = appConfig.Cache
	}
	projections := public.NewProjectionCache(cache, settings.PublicCacheTTL, appConfig.Logger)

	var cachePinger monitoring.Pinger
	if appConfig.Cache != nil {
		cachePinger = appConfig.Cache
	}

	rs.MountController(monitoring.NewMonitoringController(appConfig.DB, appConfig.Logger, cachePinger, appConfig.Storage))
	rs.MountController(auth.NewAuthController(appConfig.DB, appConfig.Logger, appConfig.Tokens, auth.CookieSettings{
		Name:   settings.Auth.CookieName,
		Secure: settings.Auth.CookieSecure,
	}, settings.AuthRatePerMin))
	rs.MountController(waitlist.NewWaitlistController(appConfig.DB, appConfig.Logger, resolve, projections, settings.PublicBaseURL))
	rs.MountController(subscription.NewSubscriptionController(appConfig.DB, appConfig.Logger, projections, settings.SubscribeRatePerMin))
	rs.MountController(public.NewPublicController(appConfig.DB, appConfig.Logger, projections))
	rs.MountController(upload.NewUploadController(appConfig.Logger, appConfig.Storage, resolve))

	if local, ok := appConfig.Storage.(*storage.LocalStore); ok {
		rs.MountController(upload.NewLocalFilesController(local))
	}
}
