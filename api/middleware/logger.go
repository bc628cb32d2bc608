package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/editions-go/pkg/logger"
	"go.uber.org/zap"
)

// Logger logs every request at debug level. Server errors go to the error
// log instead.
func Logger(logAdapter *logger.LoggerAdapter) gin.HandlerFunc {
	general := logAdapter.General()
	errLog := logAdapter.Error()
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, zap.String("edition_id", id))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if status >= 500 {
			errLog.Error("Request failed", fields...)
			return
		}
		general.Debug("Request", fields...)
	}
}
