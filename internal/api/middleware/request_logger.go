package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mashdotdev/taskflow/pkg/logger"
	"go.uber.org/zap"
)

// RequestLogger logs one structured line per handled request
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
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
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if c.Writer.Status() >= 500 {
			log.Error("HTTP request", fields...)
		} else {
			log.Info("HTTP request", fields...)
		}
	}
}
