// Command seed creates the demo admin and user accounts.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spec-kit/flight-agent/internal/config"
	"github.com/spec-kit/flight-agent/internal/observability"
	"github.com/spec-kit/flight-agent/internal/persistence"
	"github.com/spec-kit/flight-agent/internal/seed"
	"github.com/spec-kit/flight-agent/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := persistence.OpenStore(ctx, *cfg, logger)
	if err != nil {
		logger.Fatal("failed to open user store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer store.Close()

	users := service.NewUserStore(store.Users, cfg.Store.Timeout, cfg.Auth.BcryptCost)
	res, err := seed.NewSeeder(users, logger).Run(ctx, cfg.Seed)
	if err != nil {
		logger.Fatal("seeding failed", zap.Error(err))
	}
	logger.Info("seeding finished", zap.Strings("created", res.Created), zap.Strings("skipped", res.Skipped))
}
