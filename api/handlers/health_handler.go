package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/editions-go/internal/domain"
)

// ReadinessChecker reports whether the SDK finished initializing and what it
// presented last
type ReadinessChecker interface {
	Initialized() bool
	LastOpened() *domain.Presentation
}

// HealthHandler handles health check requests
type HealthHandler struct {
	sdk ReadinessChecker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(sdk ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		sdk: sdk,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	SDK     struct {
		Initialized bool                 `json:"initialized"`
		LastOpened  *domain.Presentation `json:"last_opened,omitempty"`
	} `json:"sdk"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	}
	response.SDK.Initialized = h.sdk.Initialized()
	response.SDK.LastOpened = h.sdk.LastOpened()

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.sdk.Initialized() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "editions sdk not initialized",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
