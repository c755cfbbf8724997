package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/flight-agent/internal/observability"
)

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	deps        map[string]Pinger
	metrics     *observability.Metrics
}

// NewHealthHandler returns a new handler instance. deps maps a dependency
// name to its probe; nil probes are skipped.
func NewHealthHandler(serviceName, version string, deps map[string]Pinger, metrics *observability.Metrics) *HealthHandler {
	checked := make(map[string]Pinger, len(deps))
	for name, p := range deps {
		if p != nil {
			checked[name] = p
		}
	}
	return &HealthHandler{serviceName: serviceName, version: version, deps: checked, metrics: metrics}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			depStatus[name] = err.Error()
			ready = false
		} else {
			depStatus[name] = "ok"
		}
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}

// Metrics returns the request counters.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
