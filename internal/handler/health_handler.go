package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/pazar_api/internal/utils"
)

var startTime = time.Now()

// Pinger is a dependency whose reachability is reported by /health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// HealthHandler provides health endpoint.
type HealthHandler struct {
	db      Pinger
	redis   Pinger
	version string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db, redis Pinger, version string) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, version: version}
}

// GetHealth responds with service, database and Redis status. Any
// unreachable dependency turns the response into a 503.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	dbStatus := ping(ctx, h.db)
	redisStatus := ping(ctx, h.redis)

	code, status, msg := http.StatusOK, "healthy", "Service is healthy"
	if dbStatus == "disconnected" || redisStatus == "disconnected" {
		code, status, msg = http.StatusServiceUnavailable, "degraded", "Service is degraded"
	}

	utils.Success(c, code, msg, gin.H{
		"status":   status,
		"version":  h.version,
		"uptime":   int(time.Since(startTime).Seconds()),
		"database": gin.H{"status": dbStatus},
		"redis":    gin.H{"status": redisStatus},
	})
}

func ping(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.PingContext(ctx); err != nil {
		return "disconnected"
	}
	return "connected"
}
