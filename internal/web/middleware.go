package web

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/samvad-hq/pulse-news/internal/logger"
)

// accessLog writes one zap entry per request.
func accessLog(log logger.Logger) gin.HandlerFunc {
	zl := logger.Zap(logger.Ensure(log))
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if msg := c.Errors.ByType(gin.ErrorTypePrivate).String(); msg != "" {
			fields = append(fields, zap.String("error", msg))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			zl.Error("http request", fields...)
		case status >= 400:
			zl.Warn("http request", fields...)
		default:
			zl.Debug("http request", fields...)
		}
	}
}
