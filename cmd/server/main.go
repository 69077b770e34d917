package main

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/akeren/waitlist-foundry/config"
	"github.com/akeren/waitlist-foundry/domain"
	"github.com/akeren/waitlist-foundry/internal/log"
)

const shutdownGrace = 30 * time.Second

func main() {
	logger := log.NewLoggerWithJSONOutput()

	if err := run(logger, os.Args[1:]); err != nil {
		logger.Error("Waitlist server stopped with an error", "error", err.Error())
		os.Exit(1)
	}
}

// wantsAutoMigrate reports whether --auto-migrate (or -m) was passed.
func wantsAutoMigrate(args []string) bool {
	return slices.ContainsFunc(args, func(arg string) bool {
		arg = strings.ToLower(arg)
		return arg == "--auto-migrate" || arg == "-m"
	})
}

func run(logger *log.Logger, args []string) error {
	appConfig, err := config.LoadApplicationConfiguration(logger, wantsAutoMigrate(args))
	if err != nil {
		return err
	}
	defer appConfig.Cleanup()

	domain.SetupCoreDomain(appConfig)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- appConfig.RouterService.RunHTTPServer()
	}()

	logger.Info("Waitlist server started", "env", config.GetAppEnv())

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutdown signal received; draining requests", "grace", shutdownGrace.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := appConfig.RouterService.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server did not drain before the deadline", "error", err)
	}

	logger.Info("Graceful shutdown completed")
	return nil
}
