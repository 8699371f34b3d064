package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is anything the health endpoints can check. pgxpool.Pool, the cache
// service and the media storage all satisfy it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	db      Pinger
	cache   Pinger
	storage Pinger
	version string
	started time.Time
}

// NewHealthHandlers creates a new health handlers instance
func NewHealthHandlers(db, cache, storage Pinger, version string) *HealthHandlers {
	return &HealthHandlers{
		db:      db,
		cache:   cache,
		storage: storage,
		version: version,
		started: time.Now(),
	}
}

type dependencyCheck struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status     string                     `json:"status"`
	Timestamp  string                     `json:"timestamp"`
	Checks     map[string]dependencyCheck `json:"checks"`
	Uptime     string                     `json:"uptime"`
	Version    string                     `json:"version"`
	Goroutines int                        `json:"goroutines"`
}

func check(ctx context.Context, p Pinger) dependencyCheck {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	result := dependencyCheck{Status: "healthy", LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		result.Status = "unhealthy"
		result.Message = err.Error()
	}
	return result
}

// LivenessCheck determines if the application is running (basic liveness check)
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadinessCheck reports whether the database and the session store answer.
// Media storage is not required to serve pages.
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	ctx := c.Request().Context()

	if check(ctx, h.db).Status != "healthy" || check(ctx, h.cache).Status != "healthy" {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "not_ready",
			"message": "Critical services unavailable",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ready",
		"message": "All systems operational",
	})
}

// DetailedHealthCheck provides detailed health information
func (h *HealthHandlers) DetailedHealthCheck(c echo.Context) error {
	ctx := c.Request().Context()

	health := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks: map[string]dependencyCheck{
			"database": check(ctx, h.db),
			"redis":    check(ctx, h.cache),
			"storage":  check(ctx, h.storage),
		},
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Version:    h.version,
		Goroutines: runtime.NumGoroutine(),
	}

	for _, result := range health.Checks {
		if result.Status != "healthy" {
			health.Status = "degraded"
		}
	}

	statusCode := http.StatusOK
	if health.Status == "degraded" {
		statusCode = http.StatusPartialContent
	}
	return c.JSON(statusCode, health)
}
