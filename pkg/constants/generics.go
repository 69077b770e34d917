package constants

import "time"

// RFC 3339 date-time format string.
// Use this format for all date-time serialization and communication with external systems.
const RFC3339DateTimeFormat = "2006-01-02T15:04:05Z07:00"

// ExportDateFormat is the day/month/year layout used in subscriber exports.
const ExportDateFormat = "02/01/2006"

// Default rate limiting configuration
const (
	// DefaultRateLimitRequests is the default number of requests allowed per time window
	DefaultRateLimitRequests = 100
	// DefaultRateLimitWindowMinutes is the default time window for rate limiting
	DefaultRateLimitWindowMinutes = 1
	// DefaultSubscribeRequestsPerMinute caps public sign-ups per client IP.
	DefaultSubscribeRequestsPerMinute = 20
	// DefaultAuthRequestsPerMinute caps register and login attempts per client IP.
	DefaultAuthRequestsPerMinute = 10
)

// DefaultRateLimitWindow returns the default rate limit window duration
func DefaultRateLimitWindow() time.Duration {
	return time.Duration(DefaultRateLimitWindowMinutes) * time.Minute
}

// Waitlist defaults applied when the owner leaves a field empty.
const (
	DefaultPrimaryColor    = "#000000"
	DefaultBackgroundColor = "#ffffff"
	DefaultCollectName     = true
	DefaultCollectCompany  = false
)

// Logo upload limits.
const (
	MaxLogoSizeBytes = 5 * 1024 * 1024
	LogoKeyPrefix    = "logos"
)

const (
	DefaultPublicCacheTTL = 30 * time.Second
	DefaultTokenTTL       = 30 * 24 * time.Hour
	DefaultSessionCookie  = "waitlist_session"
)
