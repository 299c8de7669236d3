package handlers

import (
	"net/http"
	"time"

	"bloodlink/internal/services"
	"bloodlink/pkg/database"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	db    *database.MongoDB
	cache services.CacheService
}

func NewHealthHandler(db *database.MongoDB, cacheService services.CacheService) *HealthHandler {
	return &HealthHandler{
		db:    db,
		cache: cacheService,
	}
}

// Check handles GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()
	checks := gin.H{}
	healthy := true

	if err := h.db.Ping(ctx); err != nil {
		checks["mongodb"] = "down"
		healthy = false
	} else {
		checks["mongodb"] = "up"
	}

	if err := h.cache.Ping(ctx); err != nil {
		checks["redis"] = "down"
		healthy = false
	} else {
		checks["redis"] = "up"
	}

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}

	c.JSON(status, gin.H{
		"status":    state,
		"checks":    checks,
		"timestamp": time.Now().UTC(),
	})
}
