package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/editions-go/internal/domain"
	"go.uber.org/zap"
)

// AttemptHistory exposes the recorded download attempts
type AttemptHistory interface {
	Stats() (*domain.DownloadStats, error)
	Attempts(id domain.EditionID) ([]*domain.DownloadAttempt, error)
}

// DownloadHandler handles download-related HTTP requests
type DownloadHandler struct {
	session EditionSession
	history AttemptHistory
	logger  *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(session EditionSession, history AttemptHistory, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{
		session: session,
		history: history,
		logger:  logger,
	}
}

// ListActive handles GET /api/v1/downloads
func (h *DownloadHandler) ListActive(c *gin.Context) {
	active, err := h.session.ActiveDownloads(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list active downloads", zap.Error(err))
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":     len(active),
		"downloads": active,
	})
}

// GetStats handles GET /api/v1/downloads/stats
func (h *DownloadHandler) GetStats(c *gin.Context) {
	stats, err := h.history.Stats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetAttempts handles GET /api/v1/downloads/:id/attempts
func (h *DownloadHandler) GetAttempts(c *gin.Context) {
	id := domain.EditionID(c.Param("id"))

	attempts, err := h.history.Attempts(id)
	if err != nil {
		h.logger.Error("Failed to get attempts", zap.String("edition_id", string(id)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"edition_id": id,
		"count":      len(attempts),
		"attempts":   attempts,
	})
}
