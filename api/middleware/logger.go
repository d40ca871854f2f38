package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/tunedrop/pkg/logger"
)

// Logger returns a gin middleware for request logging. Responses with a
// status of 500 or above are also written to the error category.
func Logger(log *zap.Logger, events *logger.MultiLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		log.Info("HTTP request", fields...)

		if status >= 500 {
			if errs := c.Errors.String(); errs != "" {
				fields = append(fields, zap.String("errors", errs))
			}
			events.LogAppError("HTTP error response", fields...)
		}
	}
}
