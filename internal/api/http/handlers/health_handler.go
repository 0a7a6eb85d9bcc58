package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-triage/internal/contextstore"
	"github.com/spec-kit/ticket-triage/internal/observability"
	"github.com/spec-kit/ticket-triage/internal/persistence"
)

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	store       *contextstore.Store
	metrics     *observability.Metrics
	redis       *persistence.Redis
}

// NewHealthHandler returns a new handler instance. redis may be nil
// when the capability cache is disabled.
func NewHealthHandler(serviceName, version string, store *contextstore.Store, metrics *observability.Metrics, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, store: store, metrics: metrics, redis: redis}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports readiness plus the pipeline health counters. The
// consecutive-failure counter is surfaced for external supervisors;
// the pipeline itself never acts on it.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			depStatus["redis"] = err.Error()
		} else {
			depStatus["redis"] = "ok"
		}
	} else {
		depStatus["redis"] = "disabled"
	}

	health := h.store.Health()
	return c.JSON(fiber.Map{
		"status":       "ready",
		"dependencies": depStatus,
		"pipeline": fiber.Map{
			"last_success_at":      health.LastSuccessAt,
			"consecutive_failures": health.ConsecutiveFailures,
			"stages":               h.metrics.StageCounts(),
		},
		"http": h.metrics.RequestStats(),
	})
}
