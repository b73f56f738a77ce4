package middleware

import (
	"net/http"
	"strconv"
	"time"

	"anoa.com/fitquest/pkg/logger"
	"anoa.com/fitquest/pkg/metrics"
	"anoa.com/fitquest/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger records one log line and the request metrics per handled request.
func RequestLogger(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		status := c.Writer.Status()
		duration := time.Since(start).Seconds()

		metrics.ReqCount.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()
		metrics.ReqDuration.WithLabelValues(c.Request.Method, path).Observe(duration)

		if _, ok := skip[path]; ok {
			return
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Float64("duration", duration),
			zap.String("client_ip", c.ClientIP()),
		}
		if userID, err := response.GetUserID(c); err == nil {
			fields = append(fields, zap.Stringer("user_id", userID))
		}
		if status >= http.StatusInternalServerError {
			logger.Logger.Error("http_request", fields...)
			return
		}
		logger.Logger.Info("http_request", fields...)
	}
}

func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Logger.Error("panic_recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
				)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				c.Abort()
			}
		}()
		c.Next()
	}
}
