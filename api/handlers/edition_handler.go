package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/editions-go/internal/app"
	"github.com/yourusername/editions-go/internal/domain"
	"go.uber.org/zap"
)

// EditionSession is the part of app.Session the HTTP layer drives
type EditionSession interface {
	Load(ctx context.Context) error
	Tap(ctx context.Context, id domain.EditionID) (app.ActivateResult, error)
	LongPress(ctx context.Context, id domain.EditionID) (app.Signal, error)
	Cells(ctx context.Context) ([]app.CellState, error)
	Cell(ctx context.Context, id domain.EditionID) (app.CellState, error)
	ActiveDownloads(ctx context.Context) (map[domain.EditionID]app.DownloadState, error)
	Subscribe(ctx context.Context, fn func(app.GridEvent)) (func(), error)
	Layout() app.Layout
}

// EditionHandler handles edition grid requests
type EditionHandler struct {
	session EditionSession
	logger  *zap.Logger
}

// NewEditionHandler creates a new edition handler
func NewEditionHandler(session EditionSession, logger *zap.Logger) *EditionHandler {
	return &EditionHandler{
		session: session,
		logger:  logger,
	}
}

// GridResponse is the rendered grid with its layout
type GridResponse struct {
	Columns  int             `json:"columns"`
	CellSize domain.Size     `json:"cell_size"`
	CoverBox domain.Size     `json:"cover_box"`
	Count    int             `json:"count"`
	Cells    []app.CellState `json:"cells"`
}

// ListEditions handles GET /api/v1/editions
func (h *EditionHandler) ListEditions(c *gin.Context) {
	cells, err := h.session.Cells(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list editions", zap.Error(err))
		abortWithError(c, err)
		return
	}

	layout := h.session.Layout()
	c.JSON(http.StatusOK, GridResponse{
		Columns:  layout.Columns(),
		CellSize: layout.CellSize(),
		CoverBox: layout.CoverBoundingBox(),
		Count:    len(cells),
		Cells:    cells,
	})
}

// GetEdition handles GET /api/v1/editions/:id
func (h *EditionHandler) GetEdition(c *gin.Context) {
	cell, err := h.session.Cell(c.Request.Context(), domain.EditionID(c.Param("id")))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, cell)
}

// Tap handles POST /api/v1/editions/:id/tap
func (h *EditionHandler) Tap(c *gin.Context) {
	id := domain.EditionID(c.Param("id"))

	result, err := h.session.Tap(c.Request.Context(), id)
	if err != nil {
		h.logger.Warn("Tap failed", zap.String("edition_id", string(id)), zap.Error(err))
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// LongPress handles POST /api/v1/editions/:id/long-press
func (h *EditionHandler) LongPress(c *gin.Context) {
	id := domain.EditionID(c.Param("id"))

	signal, err := h.session.LongPress(c.Request.Context(), id)
	if err != nil {
		h.logger.Warn("Long press failed", zap.String("edition_id", string(id)), zap.Error(err))
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"signal": signal})
}

// Refresh handles POST /api/v1/editions/refresh
func (h *EditionHandler) Refresh(c *gin.Context) {
	if err := h.session.Load(c.Request.Context()); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "catalog refreshed"})
}
