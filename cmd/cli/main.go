package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/waitlist-foundry/config"
	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/pkg/migrations"
	"github.com/akeren/waitlist-foundry/pkg/utils"
)

func main() {
	logger := log.NewLoggerWithJSONOutput()

	config.InitializeEnvFile(logger) // Load envs early for CLI consistency

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "migrate":
		if err := runMigrate(logger, args[1:]); err != nil {
			logger.Error("Database migration failed", "error", err.Error())
			os.Exit(1)
		}
		return

	case "seed":
		db, err := config.NewDatabase(logger, nil)
		if err != nil {
			logger.Error("Failed to connect to database for seeding", "error", err.Error())
			os.Exit(1)
		}
		defer config.CloseDatabase(db, logger)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		report, err := Seed(ctx, db, time.Now())
		if err != nil {
			logger.Error("Seeding failed", "error", err.Error())
			os.Exit(1)
		}
		report.Print(os.Stdout, utils.GetEnvTrimmedOrDefault("PUBLIC_BASE_URL", "http://localhost:8080"))
		return

	case "slugify":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "slugify requires a title")
			os.Exit(1)
		}
		Slugify(os.Stdout, strings.Join(args[1:], " "))
		return

	case "help", "-h", "--help":
		printUsage()
		return

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func runMigrate(logger *log.Logger, args []string) error {
	direction := "up"
	if len(args) > 0 {
		direction = strings.ToLower(args[0])
	}

	steps := 1
	if direction == "down" && len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid step count %q: %w", args[1], err)
		}
		steps = n
	}

	db, err := config.NewDatabase(logger, nil)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("Failed to close SQL DB after migration", "error", err.Error())
		}
	}()

	migrationsDir := utils.GetEnvTrimmedOrDefault("MIGRATIONS_DIR", "migrations")
	cfg := migrations.Config{Dir: migrationsDir, Logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch direction {
	case "up":
		err = migrations.Up(ctx, sqlDB, cfg)
	case "down":
		err = migrations.Down(ctx, sqlDB, cfg, steps)
	case "status":
		return printMigrationState(ctx, sqlDB, cfg)
	default:
		return fmt.Errorf("unknown migrate direction %q", direction)
	}
	if err != nil {
		return err
	}

	logger.Info("Database migrations completed", "direction", direction)
	return nil
}

func printUsage() {
	fmt.Println("Usage: cli <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate [up|down [n]|status]  Run or inspect database migrations")
	fmt.Println("  seed                          Create the demo account and its demo waitlists")
	fmt.Println("  slugify <title...>            Print the slug derived from a title")
}

func printMigrationState(ctx context.Context, db *sql.DB, cfg migrations.Config) error {
	state, err := migrations.Status(ctx, db, cfg)
	if err != nil {
		return err
	}

	switch {
	case !state.Applied:
		fmt.Println("schema: no migrations applied")
	case state.Dirty:
		fmt.Printf("schema: version %d (dirty, fix manually before migrating again)\n", state.Version)
	default:
		fmt.Printf("schema: version %d\n", state.Version)
	}
	return nil
}
