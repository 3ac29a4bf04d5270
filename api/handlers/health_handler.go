package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/yt-batch/internal/app"
	"github.com/yourusername/yt-batch/internal/domain"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// HealthHandler handles health check requests
type HealthHandler struct {
	runner *app.Runner
	engine domain.Engine
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(runner *app.Runner, engine domain.Engine) *HealthHandler {
	return &HealthHandler{
		runner: runner,
		engine: engine,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Batch   struct {
		Running bool              `json:"running"`
		State   domain.BatchState `json:"state"`
	} `json:"batch"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: Version,
	}
	status := h.runner.Status()
	response.Batch.Running = status.State == domain.StateRunning
	response.Batch.State = status.State

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready. The server is ready once the engine runs.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	version, err := h.engine.Check(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready", "engine_version": version})
}
