package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/yt-batch/internal/app"
	"github.com/yourusername/yt-batch/internal/domain"
)

// BatchHandler handles batch run requests
type BatchHandler struct {
	runner  *app.Runner
	preview *app.PreviewService
	repo    domain.RunRepository
	logger  *zap.Logger
}

// NewBatchHandler creates a new batch handler. repo is nil when run
// history is disabled.
func NewBatchHandler(runner *app.Runner, preview *app.PreviewService, repo domain.RunRepository, logger *zap.Logger) *BatchHandler {
	return &BatchHandler{
		runner:  runner,
		preview: preview,
		repo:    repo,
		logger:  logger,
	}
}

// StartBatchRequest represents a request to start a batch
type StartBatchRequest struct {
	URL       string `json:"url"`
	File      string `json:"file"`
	Quality   string `json:"quality"`
	AudioOnly bool   `json:"audio_only"`
	OutputDir string `json:"output_dir"`
}

// StopBatchRequest represents a request to stop the running batch
type StopBatchRequest struct {
	Terminate bool `json:"terminate"`
}

// StartBatch handles POST /api/v1/batch
func (h *BatchHandler) StartBatch(c *gin.Context) {
	var req StartBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	runID, err := h.runner.Start(domain.BatchRequest{
		URL:       req.URL,
		File:      req.File,
		Quality:   domain.Quality(req.Quality),
		AudioOnly: req.AudioOnly,
		OutputDir: req.OutputDir,
	})
	switch {
	case err == nil:
	case domain.IsInputError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, domain.ErrBatchRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	default:
		h.logger.Error("Failed to start batch", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"run_id": runID,
		"status": h.runner.Status(),
	})
}

// StopBatch handles POST /api/v1/batch/stop
func (h *BatchHandler) StopBatch(c *gin.Context) {
	var req StopBatchRequest
	// An empty body means a cooperative stop
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if err := h.runner.Stop(req.Terminate); err != nil {
		if errors.Is(err, domain.ErrNotRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "stop requested",
		"status":  h.runner.Status(),
	})
}

// GetStatus handles GET /api/v1/batch/status
func (h *BatchHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.runner.Status())
}

// Preview handles GET /api/v1/preview
func (h *BatchHandler) Preview(c *gin.Context) {
	url := strings.TrimSpace(c.Query("url"))
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'url' is required"})
		return
	}

	quality := domain.Quality(c.Query("quality"))
	audioOnly, _ := strconv.ParseBool(c.DefaultQuery("audio_only", "false"))

	c.JSON(http.StatusOK, h.preview.Preview(c.Request.Context(), url, quality, audioOnly))
}

// ListRuns handles GET /api/v1/runs
func (h *BatchHandler) ListRuns(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run history is disabled"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 0 {
		limit = 20
	}

	runs, err := h.repo.List(limit)
	if err != nil {
		h.logger.Error("Failed to list runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(runs),
		"runs":  runs,
	})
}

// GetRunStats handles GET /api/v1/runs/stats
func (h *BatchHandler) GetRunStats(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run history is disabled"})
		return
	}

	stats, err := h.repo.GetStats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetRun handles GET /api/v1/runs/:id
func (h *BatchHandler) GetRun(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run history is disabled"})
		return
	}

	run, err := h.repo.FindByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, run)
}
