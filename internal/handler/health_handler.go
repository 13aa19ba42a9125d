package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const readinessTimeout = 3 * time.Second

// ReadinessCheck probes one dependency.
type ReadinessCheck func(ctx context.Context) error

// Check is the outcome of a single readiness probe.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	checks    map[string]ReadinessCheck
	startTime time.Time
	version   string
}

// NewHealthHandler constructs the handler. Nil checks are skipped.
func NewHealthHandler(version string, checks map[string]ReadinessCheck) *HealthHandler {
	active := make(map[string]ReadinessCheck, len(checks))
	for name, check := range checks {
		if check != nil {
			active[name] = check
		}
	}
	if version == "" {
		version = "unknown"
	}
	return &HealthHandler{checks: active, startTime: time.Now(), version: version}
}

// Health godoc
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.startTime).Round(time.Second).String(),
		"version":   h.version,
	})
}

// Ready godoc
// @Summary Readiness probe
// @Description Pings postgres and, when configured, redis
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	results := make(map[string]Check, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = Check{Status: "down", Message: "cannot reach " + name}
			status = "unavailable"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		results[name] = Check{Status: "up"}
	}
	c.JSON(httpStatus, gin.H{"status": status, "checks": results})
}
