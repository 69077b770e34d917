package config

import (
	"fmt"
	"time"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/pkg/constants"
	"github.com/akeren/waitlist-foundry/pkg/token"
	"github.com/akeren/waitlist-foundry/pkg/utils"
)

// Only used when AUTH_SECRET is unset in a dev-like environment.
const devAuthSecret = "waitlist-foundry-dev-secret-change-me"

type AuthConfig struct {
	Secret       string
	TokenTTL     time.Duration
	CookieName   string
	CookieSecure bool
}

func NewAuthConfig() *AuthConfig {
	return &AuthConfig{
		Secret:       utils.GetEnvTrimmed("AUTH_SECRET"),
		TokenTTL:     utils.GetEnvDuration("AUTH_TOKEN_TTL", constants.DefaultTokenTTL),
		CookieName:   utils.GetEnvTrimmedOrDefault("AUTH_COOKIE_NAME", constants.DefaultSessionCookie),
		CookieSecure: utils.GetEnvBool("AUTH_COOKIE_SECURE", !IsDevLikeEnv(GetAppEnv())),
	}
}

// NewIssuer refuses to start outside dev-like environments without a secret.
func (ac *AuthConfig) NewIssuer(logger *log.Logger, appEnv string) (*token.Issuer, error) {
	secret := ac.Secret
	if secret == "" {
		if !IsDevLikeEnv(appEnv) {
			return nil, fmt.Errorf("AUTH_SECRET is required when %s=%q", AppEnvKey, appEnv)
		}
		logger.Warn("AUTH_SECRET not set; using the development secret")
		secret = devAuthSecret
	}

	return token.NewIssuer(secret, ac.TokenTTL)
}
