package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/joho/godotenv"
)

const AppEnvKey = "APP_ENV"

// devLikeEnvs may use --auto-migrate and get relaxed defaults (no HSTS).
var devLikeEnvs = map[string]struct{}{
	"":            {},
	"dev":         {},
	"development": {},
	"local":       {},
	"test":        {},
	"testing":     {},
}

// dotenvFiles lists the files InitializeEnvFile reads, most specific first.
// godotenv never overrides a variable that is already set, so the process
// environment beats .env.<APP_ENV>, which beats .env.
func dotenvFiles() []string {
	files := []string{".env"}
	if env := GetAppEnv(); env != "" {
		files = append([]string{".env." + env}, files...)
	}
	return files
}

// InitializeEnvFile loads whichever dotenv files exist. SKIP_DOTENV=true
// disables it for containers that inject their environment.
func InitializeEnvFile(logger *log.Logger) {
	if strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_DOTENV")), "true") {
		logger.Info("Skipping dotenv files", "reason", "SKIP_DOTENV")
		return
	}

	var loaded []string
	for _, file := range dotenvFiles() {
		err := godotenv.Load(file)
		switch {
		case err == nil:
			loaded = append(loaded, file)
		case errors.Is(err, fs.ErrNotExist):
		default:
			logger.Warn("Failed to read dotenv file", "file", file, "error", err.Error())
		}
	}

	if len(loaded) == 0 {
		logger.Info("No dotenv file found; using the process environment")
		return
	}
	logger.Info("Loaded dotenv files", "files", strings.Join(loaded, ", "))
}

func GetAppEnv() string {
	return strings.ToLower(strings.TrimSpace(os.Getenv(AppEnvKey)))
}

func IsDevLikeEnv(env string) bool {
	_, ok := devLikeEnvs[strings.ToLower(strings.TrimSpace(env))]
	return ok
}

func ValidateAutoMigrateAllowed(appEnv string) error {
	env := strings.ToLower(strings.TrimSpace(appEnv))
	if IsDevLikeEnv(env) {
		return nil
	}
	return fmt.Errorf("--auto-migrate is refused when %s=%q; apply migrations with `cli migrate up` instead", AppEnvKey, env)
}
