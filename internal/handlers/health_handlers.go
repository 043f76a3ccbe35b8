package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const healthCheckTimeout = 2 * time.Second

// DBPinger is satisfied by *pgxpool.Pool.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// RedisPinger is satisfied by *redis.Client.
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// HealthHandlers handles health check endpoints
type HealthHandlers struct {
	db      DBPinger
	redis   RedisPinger
	clock   clock.Clock
	version string
	started time.Time
}

// NewHealthHandlers builds the health endpoints. A nil redis means the login
// throttle is disabled and is reported as such.
func NewHealthHandlers(db DBPinger, redisClient RedisPinger, clk clock.Clock, version string) *HealthHandlers {
	if clk == nil {
		clk = clock.New()
	}
	return &HealthHandlers{
		db:      db,
		redis:   redisClient,
		clock:   clk,
		version: version,
		started: clk.Now(),
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
}

// HealthCheck reports the state of the database and redis.
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	now := h.clock.Now()
	health := &HealthStatus{
		Status:    "healthy",
		Timestamp: now.UTC().Format(time.RFC3339),
		Services:  make(map[string]string),
		Version:   h.version,
		Uptime:    now.Sub(h.started).Truncate(time.Second).String(),
	}

	if err := h.db.Ping(ctx); err != nil {
		health.Services["database"] = "unhealthy"
		health.Status = "unhealthy"
	} else {
		health.Services["database"] = "healthy"
	}

	switch {
	case h.redis == nil:
		health.Services["redis"] = "disabled"
	case h.redis.Ping(ctx).Err() != nil:
		health.Services["redis"] = "unhealthy"
		if health.Status == "healthy" {
			health.Status = "degraded"
		}
	default:
		health.Services["redis"] = "healthy"
	}

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	return c.JSON(statusCode, health)
}

// LivenessCheck determines if the application is running (basic liveness probe)
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "alive",
		"timestamp": h.clock.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandlers) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.HealthCheck)
	e.GET("/health/live", h.LivenessCheck)
}
