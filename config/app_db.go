package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/pkg/retry"
	"github.com/akeren/waitlist-foundry/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// sqlitePrefix selects the embedded driver, e.g. sqlite://waitlist.db.
const sqlitePrefix = "sqlite://"

type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	// SSLMode applies to the POSTGRES_* form only; APP_DATABASE_URL carries its own.
	SSLMode         string
	ConnectAttempts int
}

func NewDBConfig() *DBConfig {
	return &DBConfig{
		MaxIdleConns:    utils.GetEnvPositiveInt("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns:    utils.GetEnvPositiveInt("DB_MAX_OPEN_CONNS", 50),
		ConnMaxLifetime: utils.GetEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		SSLMode:         "require",
		ConnectAttempts: utils.GetEnvPositiveInt("DB_CONNECT_ATTEMPTS", 3),
	}
}

// NewDatabase opens Postgres, or SQLite for a sqlite:// URL, and pings it with
// exponential backoff. A nil cfg reads the pool settings from the environment.
func NewDatabase(logger *log.Logger, cfg *DBConfig) (*gorm.DB, error) {
	if cfg == nil {
		cfg = NewDBConfig()
	}

	dsn, err := resolveDSN(cfg)
	if err != nil {
		logger.Error("Database is not configured", "error", err)
		return nil, err
	}

	dialector, isSQLite := dialectorFor(dsn)

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	if isSQLite {
		// One writer; concurrent subscribes queue on the pool instead of failing with SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	}

	backoff := retry.Backoff{
		Attempts:    cfg.ConnectAttempts,
		Initial:     500 * time.Millisecond,
		Max:         5 * time.Second,
		Jitter:      0.2,
		ShouldRetry: func(error) bool { return true },
		OnRetry: func(attempt int, wait time.Duration, err error) {
			logger.Warn("Database ping failed; retrying", "attempt", attempt, "wait", wait.String(), "error", err)
		},
	}

	if err := retry.Do(context.Background(), backoff, sqlDB.PingContext); err != nil {
		logger.Error("Database unreachable", "attempts", cfg.ConnectAttempts, "error", err)
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Database connection established", "driver", gdb.Dialector.Name())
	return gdb, nil
}

// dialectorFor enables foreign keys on SQLite so subscriber rows follow their waitlist.
func dialectorFor(dsn string) (gorm.Dialector, bool) {
	if !strings.HasPrefix(dsn, sqlitePrefix) {
		return postgres.Open(dsn), false
	}

	path := strings.TrimPrefix(dsn, sqlitePrefix)
	if !strings.Contains(path, "_foreign_keys") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		path += sep + "_foreign_keys=on"
	}
	return sqlite.Open(path), true
}

// resolveDSN prefers APP_DATABASE_URL and otherwise assembles a Postgres
// keyword DSN from the POSTGRES_* variables.
func resolveDSN(cfg *DBConfig) (string, error) {
	if url := envUnquoted("APP_DATABASE_URL"); url != "" {
		return url, nil
	}

	params := map[string]string{
		"POSTGRES_HOST":    envUnquoted("POSTGRES_HOST"),
		"POSTGRES_PORT":    envUnquoted("POSTGRES_PORT"),
		"POSTGRES_USER":    envUnquoted("POSTGRES_USER"),
		"POSTGRES_DB_NAME": envUnquoted("POSTGRES_DB_NAME"),
	}

	var missing []string
	for _, key := range []string{"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_DB_NAME"} {
		if params[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return "", errors.New("missing database env vars (or set APP_DATABASE_URL): " + strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(params["POSTGRES_PORT"])
	if err != nil {
		return "", fmt.Errorf("invalid POSTGRES_PORT %q: %w", params["POSTGRES_PORT"], err)
	}

	sslMode := envUnquoted("POSTGRES_SSLMODE")
	if sslMode == "" {
		sslMode = cfg.SSLMode
	}

	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		params["POSTGRES_HOST"], port, params["POSTGRES_USER"], envUnquoted("POSTGRES_PASSWORD"), params["POSTGRES_DB_NAME"], sslMode,
	), nil
}

// envUnquoted trims the value and strips one pair of surrounding quotes, which
// some .env editors add.
func envUnquoted(key string) string {
	s := strings.TrimSpace(os.Getenv(key))
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	return s
}

// AutoMigrate is the development shortcut behind --auto-migrate; deployed
// environments apply the SQL files under migrations/.
func AutoMigrate(logger *log.Logger, db *gorm.DB, models ...any) error {
	if db == nil {
		return errors.New("cannot migrate: db is nil")
	}

	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Auto-migration failed", "error", err)
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	logger.Info("Auto-migration completed", "models", len(models))
	return nil
}

func CloseDatabase(db *gorm.DB, logger *log.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance", "error", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
		return
	}
	logger.Info("Database closed")
}
