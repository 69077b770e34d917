package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultServiceName = "waitlist-foundry"

func GetEnvTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func GetEnvTrimmedOrDefault(key, defaultValue string) string {
	if v := GetEnvTrimmed(key); v != "" {
		return v
	}
	return defaultValue
}

// parsedEnv returns defaultValue unless key is set, parses and passes accept.
func parsedEnv[T any](key string, defaultValue T, parse func(string) (T, error), accept func(T) bool) T {
	raw := GetEnvTrimmed(key)
	if raw == "" {
		return defaultValue
	}
	v, err := parse(raw)
	if err != nil || (accept != nil && !accept(v)) {
		return defaultValue
	}
	return v
}

func GetEnvBool(key string, defaultValue bool) bool {
	return parsedEnv(key, defaultValue, strconv.ParseBool, nil)
}

// GetEnvPositiveInt ignores zero, negative and unparsable values.
func GetEnvPositiveInt(key string, defaultValue int) int {
	return parsedEnv(key, defaultValue, strconv.Atoi, func(n int) bool { return n > 0 })
}

// GetEnvDuration accepts Go duration strings ("30s", "720h") greater than zero.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	return parsedEnv(key, defaultValue, time.ParseDuration, func(d time.Duration) bool { return d > 0 })
}

func IsTracingEnabled() bool {
	return GetEnvBool("OTEL_TRACES_ENABLED", false)
}

func OTelServiceName() string {
	return GetEnvTrimmedOrDefault("OTEL_SERVICE_NAME", defaultServiceName)
}
