package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoggingMiddleware logs every request with zap. Successful requests are
// logged at debug level to keep polling quiet.
func LoggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("client_ip", c.ClientIP()),
		}

		switch {
		case status >= 500:
			logger.Error("Request failed", append(fields, zap.String("error", c.Errors.String()))...)
		case status >= 400:
			logger.Warn("Request returned client error", append(fields, zap.String("error", c.Errors.String()))...)
		default:
			logger.Debug("Request completed", fields...)
		}
	}
}
