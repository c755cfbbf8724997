package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/flight-agent/internal/api/http/handlers"
	"github.com/spec-kit/flight-agent/internal/auth"
	"github.com/spec-kit/flight-agent/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Admin          *handlers.AdminHandler
	Search         *handlers.SearchHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Post("/register", cfg.Auth.Register)
	app.Post("/login", cfg.Auth.Login)
	app.Get("/login", cfg.Auth.Login)

	app.Get("/flights/search", cfg.Search.Flights)
	app.Post("/flights/search", cfg.Search.Flights)
	app.Get("/autocomplete/places", cfg.Search.Places)
	app.Post("/autocomplete/places", cfg.Search.Places)

	app.Get("/protected-example", cfg.AuthMiddleware.Handle, handlers.ProtectedExample)
	app.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/users/:identifier", cfg.Admin.UserExists)
}
