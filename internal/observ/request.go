package observ

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// RequestIDHeader is read from the client when present and always
	// echoed back.
	RequestIDHeader     = "X-Request-ID"
	ContextKeyRequestID = "request_id"
)

// RequestLogger tags every request with an id, logs its outcome and turns a
// panic in a handler into a 500 instead of a dropped connection.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, requestID)
		c.Header(RequestIDHeader, requestID)

		reqLogger := logger.With(
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("client_ip", c.ClientIP()),
		)

		defer func() {
			if rec := recover(); rec != nil {
				reqLogger.Error("panic recovered", zap.Any("panic", rec), zap.Stack("stack"))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"message": "internal server error",
				})
			}

			status := c.Writer.Status()
			if ce := reqLogger.Check(statusLevel(status), "request completed"); ce != nil {
				ce.Write(
					zap.Int("status", status),
					zap.Duration("latency", time.Since(start)),
				)
			}
		}()

		c.Next()
	}
}

// RequestID returns the id RequestLogger assigned, or "" outside of it.
func RequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}
