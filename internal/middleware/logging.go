package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kernex-dashboard/internal/logger"
)

// LoggingMiddleware logs every request once it has completed. Probe-style
// paths listed in quiet are logged at debug level.
func LoggingMiddleware(quiet ...string) gin.HandlerFunc {
	quietPaths := make(map[string]struct{}, len(quiet))
	for _, p := range quiet {
		quietPaths[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		method := c.Request.Method

		c.Next()

		statusCode := c.Writer.Status()
		log := logger.WithRequestID(GetRequestID(c))
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Int("status_code", statusCode),
			zap.Duration("latency", time.Since(start)),
		}

		if errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String(); errorMessage != "" {
			fields = append(fields, zap.String("error", errorMessage))
		}

		switch {
		case statusCode >= 500:
			log.Error("Request completed with server error", fields...)
		case statusCode >= 400:
			log.Warn("Request completed with client error", fields...)
		default:
			if _, ok := quietPaths[path]; ok {
				log.Debug("Request completed successfully", fields...)
				return
			}
			log.Info("Request completed successfully", fields...)
		}
	}
}
