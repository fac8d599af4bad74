package middleware

import (
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bloomi-app/bloomi-backend/internal/trace"
)

// CtxTraceID is the gin context key holding the trace id.
const CtxTraceID = "trace_id"

// legacyRequestIDHeader is accepted as a trace id from older clients.
const legacyRequestIDHeader = "X-Request-Id"

// TraceMiddleware ensures every request has a stable trace ID.
// - Reads X-Trace-Id (or X-Request-Id) if present
// - Otherwise generates a new one
// - Stores it in both Gin context and the request context
// - Echoes it back in response header X-Trace-Id
// - Logs request details (method, path, status, latency)
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tid := strings.TrimSpace(c.GetHeader(trace.Header))
		if tid == "" {
			tid = strings.TrimSpace(c.GetHeader(legacyRequestIDHeader))
		}
		if tid == "" {
			tid = trace.NewID()
		}

		c.Set(CtxTraceID, tid)
		c.Request = c.Request.WithContext(trace.WithID(c.Request.Context(), tid))
		c.Writer.Header().Set(trace.Header, tid)

		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		log.Printf(
			"[req] trace_id=%s method=%s path=%s status=%d latency=%s",
			tid,
			c.Request.Method,
			c.Request.URL.Path,
			status,
			latency,
		)
	}
}

// GetTraceID returns the trace id set by TraceMiddleware
func GetTraceID(c *gin.Context) string {
	return c.GetString(CtxTraceID)
}
