// Package main implements the entry point for the json-bucket gateway, which
// exposes MongoDB collections over a small JSON HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/json-bucket/internal/config"
	"github.com/phrazzld/json-bucket/internal/platform/logger"
	"github.com/spf13/pflag"
)

// Build metadata, overridden with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("json-bucket: %v", err)
	}
}

// run loads configuration, connects to the backend and serves until ctx is
// canceled.
func run(ctx context.Context, args []string) error {
	cfg, err := initializeConfig(args)
	if err != nil {
		return err
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("Server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Bool("read_only", cfg.Server.ReadOnly),
		slog.String("version", version))

	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}

// initializeConfig parses args and loads the layered configuration.
func initializeConfig(args []string) (*config.Config, error) {
	flags := config.NewFlagSet("json-bucket")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
