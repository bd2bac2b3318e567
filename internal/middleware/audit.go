package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/pkg/middleware/requestid"
)

// Audit records one structured log line per console mutation. Failed
// requests are logged at warn with the error code.
func Audit(logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("action", action),
			zap.String("resource", resource),
			zap.String("resource_id", c.Param("id")),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", requestid.Value(c)),
		}
		if session := SessionFromContext(c); session != nil {
			fields = append(fields, zap.String("admin_id", session.Admin.ID), zap.String("role", string(session.Admin.Role)))
		}

		if c.Writer.Status() >= 400 {
			if last := c.Errors.Last(); last != nil {
				fields = append(fields, zap.String("error", last.Error()))
			}
			logger.Warn("audit", fields...)
			return
		}
		logger.Info("audit", fields...)
	}
}
