package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marketsync/backend/internal/domain/integration"
)

// Pinger reports whether a backing dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to the Pinger interface
type PingerFunc func(ctx context.Context) error

// Ping calls the underlying function
func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// SystemHandler serves liveness and readiness probes
type SystemHandler struct {
	BaseHandler
	database Pinger
	redis    Pinger
	gateways integration.GatewayRegistry
	timeout  time.Duration
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(database, redis Pinger, gateways integration.GatewayRegistry) *SystemHandler {
	return &SystemHandler{
		database: database,
		redis:    redis,
		gateways: gateways,
		timeout:  5 * time.Second,
	}
}

// Healthz handles GET /healthz. It reports process liveness only.
func (h *SystemHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type readinessCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Readyz handles GET /readyz. The database and cache gate readiness;
// marketplace reachability is reported but never fails the probe, since
// a marketplace outage is exactly what the job queue is there to absorb.
func (h *SystemHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	checks := []readinessCheck{
		h.check(ctx, "database", h.database),
		h.check(ctx, "redis", h.redis),
	}
	ready := true
	for _, chk := range checks {
		if chk.Status != "ok" {
			ready = false
		}
	}

	for _, gateway := range h.gateways.All() {
		name := "marketplace:" + string(gateway.Marketplace())
		checks = append(checks, h.check(ctx, name, PingerFunc(gateway.Ping)))
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"ready":  ready,
		"checks": checks,
	})
}

func (h *SystemHandler) check(ctx context.Context, name string, pinger Pinger) readinessCheck {
	if err := pinger.Ping(ctx); err != nil {
		return readinessCheck{Name: name, Status: "unavailable", Error: err.Error()}
	}
	return readinessCheck{Name: name, Status: "ok"}
}
