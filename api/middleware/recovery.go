package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/tunedrop/pkg/logger"
)

// Recovery turns a handler panic into a 500. The panic and its stack go to
// the error category as well as the request logger.
func Recovery(log *zap.Logger, events *logger.MultiLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			fields := []zap.Field{
				zap.String("panic", fmt.Sprint(recovered)),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			}
			log.Error("Panic recovered", fields...)
			events.LogAppError("handler_panic", append(fields, zap.ByteString("stack", debug.Stack()))...)

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}()
		c.Next()
	}
}
