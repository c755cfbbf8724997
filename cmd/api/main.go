package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/flight-agent/internal/api/http"
	"github.com/spec-kit/flight-agent/internal/api/http/handlers"
	"github.com/spec-kit/flight-agent/internal/auth"
	"github.com/spec-kit/flight-agent/internal/config"
	"github.com/spec-kit/flight-agent/internal/events"
	"github.com/spec-kit/flight-agent/internal/integrations/search"
	"github.com/spec-kit/flight-agent/internal/observability"
	"github.com/spec-kit/flight-agent/internal/persistence"
	"github.com/spec-kit/flight-agent/internal/service"
	"github.com/spec-kit/flight-agent/internal/worker"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := persistence.OpenStore(ctx, *cfg, logger)
	if err != nil {
		logger.Fatal("failed to open user store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer store.Close()

	deps := map[string]handlers.Pinger{"store": store}

	var cache search.Cache
	if cfg.Redis.Enabled() {
		redis := persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		deps["redis"] = redis
		cache = redis
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	users := service.NewUserStore(store.Users, cfg.Store.Timeout, cfg.Auth.BcryptCost)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	authService := service.NewAuthService(users, tokens, dispatcher, logger)

	flights := search.NewClient(search.Endpoint{
		Name:    "flights",
		URL:     cfg.Search.FlightsURL,
		Headers: map[string]string{"apikey": cfg.Search.FlightsAPIKey},
	},
		search.WithTimeout(cfg.Search.Timeout),
		search.WithCache(cache, cfg.Search.CacheTTL),
		search.WithLogger(logger),
	)
	places := search.NewClient(search.Endpoint{
		Name: "places",
		URL:  cfg.Search.PlacesURL,
	},
		search.WithTimeout(cfg.Search.Timeout),
		search.WithCache(cache, cfg.Search.CacheTTL),
		search.WithLogger(logger),
	)
	if cfg.Search.FlightsAPIKey == "" {
		logger.Warn("SEARCH_FLIGHTS_API_KEY is not set; flight search will be rejected upstream")
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Admin:          handlers.NewAdminHandler(authService),
		Search:         handlers.NewSearchHandler(flights, places),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
