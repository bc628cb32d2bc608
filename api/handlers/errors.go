package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/editions-go/internal/domain"
)

// errorStatus maps a domain error onto an HTTP status code
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrEditionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotDownloaded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrAuthorizationDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrLoopStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(errorStatus(err), gin.H{"error": err.Error()})
}
