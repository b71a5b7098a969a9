package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// New returns a JSON production logger, or a console logger outside production.
func New(production bool) (*zap.Logger, error) {
	if production {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// GinLogger logs one line per request. Query strings are dropped: they may carry phone numbers.
func GinLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case status >= 500:
			log.Error("[http]", fields...)
		case status >= 400:
			log.Warn("[http]", fields...)
		default:
			log.Info("[http]", fields...)
		}
	}
}

// GinRecovery turns panics into 500s and logs them.
func GinRecovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("[http][panic]", zap.Any("recovered", recovered), zap.String("path", c.FullPath()))
		c.AbortWithStatusJSON(500, gin.H{"error": "internal error", "code": "internal_error"})
	})
}
