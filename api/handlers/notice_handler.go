package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/editions-go/internal/domain"
)

// NoticeSource exposes the transient notices shown to the user
type NoticeSource interface {
	Active() []domain.Notice
	Subscribe(fn func(domain.Notice)) func()
}

// NoticeHandler handles notice requests
type NoticeHandler struct {
	notices NoticeSource
}

// NewNoticeHandler creates a new notice handler
func NewNoticeHandler(notices NoticeSource) *NoticeHandler {
	return &NoticeHandler{notices: notices}
}

// ListNotices handles GET /api/v1/notices
func (h *NoticeHandler) ListNotices(c *gin.Context) {
	notices := h.notices.Active()
	if notices == nil {
		notices = []domain.Notice{}
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(notices),
		"notices": notices,
	})
}
