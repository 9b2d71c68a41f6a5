package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
)

// Logger 适配 pkg/logger 的 Gin 日志中间件
func Logger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"status", status,
			"method", c.Request.Method,
			"path", path,
			"query", c.Request.URL.RawQuery,
			"ip", c.ClientIP(),
			"latency", time.Since(start).String(),
		}

		switch {
		case len(c.Errors) > 0:
			l.ErrorContext(c.Request.Context(), c.Errors.String(), fields...)
		case status >= 400:
			l.WarnContext(c.Request.Context(), "http request", fields...)
		default:
			l.DebugContext(c.Request.Context(), "http request", fields...)
		}
	}
}
