package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/editions-go/pkg/logger"
	"go.uber.org/zap"
)

// Recovery turns a handler panic into a 500 and writes it to the error log.
// Hijacked websocket connections are only logged.
func Recovery(logAdapter *logger.LoggerAdapter) gin.HandlerFunc {
	errLog := logAdapter.Error()
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			fields := []zap.Field{
				zap.Any("panic", rec),
				zap.String("method", c.Request.Method),
				zap.String("route", c.FullPath()),
				zap.Stack("stack"),
			}
			if id := c.Param("id"); id != "" {
				fields = append(fields, zap.String("edition_id", id))
			}
			errLog.Error("Handler panicked", fields...)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "internal server error",
			})
		}()
		c.Next()
	}
}
