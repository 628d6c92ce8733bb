package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stratalpha/internal/cache"
	"stratalpha/internal/services"
)

// Pinger reports connectivity of a backing store.
type Pinger interface {
	Ping() error
}

// HealthHandler reports service health: database connectivity, cache
// round-trip, and the recent outbound-call success rate.
type HealthHandler struct {
	db             Pinger
	cache          cache.Cache
	historyService services.HistoryServicer
	statsWindow    time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db Pinger, c cache.Cache, historyService services.HistoryServicer) *HealthHandler {
	return &HealthHandler{db: db, cache: c, historyService: historyService, statsWindow: 24 * time.Hour}
}

// GetHealth handles GET /health. Any failing check degrades the overall
// status and flips the HTTP code to 503 so load balancers can react.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	checks := gin.H{}
	healthy := true

	if err := h.db.Ping(); err != nil {
		checks["database"] = gin.H{"status": "down", "error": err.Error()}
		healthy = false
	} else {
		checks["database"] = gin.H{"status": "ok"}
	}

	ctx := c.Request.Context()
	probe := "health:probe"
	if err := h.cache.Set(ctx, probe, []byte("ok"), time.Minute); err != nil {
		checks["cache"] = gin.H{"status": "down", "error": err.Error()}
		healthy = false
	} else if _, ok := h.cache.Get(ctx, probe); !ok {
		checks["cache"] = gin.H{"status": "down", "error": "probe readback failed"}
		healthy = false
	} else {
		checks["cache"] = gin.H{"status": "ok"}
	}

	if stats, err := h.historyService.APIStats(time.Now().Add(-h.statsWindow)); err != nil {
		checks["api_calls"] = gin.H{"status": "unknown", "error": err.Error()}
	} else {
		checks["api_calls"] = stats
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "checks": checks})
}
