// Package main serves the persisted job set and the static dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go-jobradar/internal/config"
	"go-jobradar/internal/database"
	"go-jobradar/internal/dedup"
	"go-jobradar/internal/logger"
	"go-jobradar/internal/server"
	"go-jobradar/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.DefaultPath, "Path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	appLogger, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := appLogger.Logger
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	log.Info("🚀 Starting jobradar server", "backend", cfg.Storage.Backend, "port", cfg.Server.Port)
	return server.New(s, server.Options{
		Port:      cfg.Server.Port,
		UIDir:     cfg.Server.UIDir,
		GlobalVar: cfg.Storage.GlobalVar,
		GinMode:   cfg.Server.GinMode,
	}, log).Run(ctx)
}

// openStore opens the configured backend read-only; the server never takes the
// writer lock.
func openStore(ctx context.Context, cfg *config.Config) (dedup.Store, func(), error) {
	switch cfg.Storage.Backend {
	case "postgres":
		repo, err := database.ConnectDB(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	case "redis":
		client, err := store.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedisStore(client, cfg.Redis.Key), func() { _ = client.Close() }, nil
	default:
		return store.NewFileStore(cfg.Storage.Path, cfg.Storage.GlobalVar), func() {}, nil
	}
}
