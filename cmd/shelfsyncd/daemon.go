package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/vmunix/shelfsync/internal/app"
	"github.com/vmunix/shelfsync/internal/config"
	"github.com/vmunix/shelfsync/internal/library"
	"github.com/vmunix/shelfsync/internal/server"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runDaemon(configPath string) error {
	if configPath == "" {
		p, err := config.Discover()
		if err != nil {
			return err
		}
		configPath = p
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	a, err := app.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	scope, err := library.ParseScope(cfg.Sync.Scope)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	autoSync, err := a.Settings.AutoSyncMode()
	if err != nil {
		return err
	}

	logger.Info("daemon starting",
		"config", configPath,
		"database", cfg.Database.Path,
		"schedule", cfg.Sync.Schedule,
		"scope", scope,
		"auto_sync", autoSync,
		"log_level", cfg.Log.Level,
	)

	runner := server.NewRunner(a.Runner, a.Bus, a.Events, server.Config{
		Scheduler: server.SchedulerConfig{
			Schedule:      cfg.Sync.Schedule,
			Scope:         scope,
			RetryAttempts: cfg.Sync.RetryAttempts,
			RetryBackoff:  cfg.Sync.RetryBackoff,
		},
		AutoSync: autoSync,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx); err != nil {
		return err
	}
	logger.Info("daemon stopped")
	return nil
}
