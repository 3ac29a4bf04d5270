package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/yt-batch/pkg/logger"
)

// Logger returns a gin middleware for request logging. Server errors also
// go to the error log file.
func Logger(logs *logger.LoggerAdapter) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}

		logs.App().Info("HTTP request", fields...)
		if c.Writer.Status() >= 500 {
			logs.LogError("HTTP error response", fields...)
		}
	}
}
