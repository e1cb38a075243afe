package ctxmanage

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const TraceIDKey = "trace_id"

// GetTraceIdOfRequest returns the trace id set by the logger middleware,
// generating one if the middleware did not run for this request.
func GetTraceIdOfRequest(c *gin.Context) string {
	if v, ok := c.Get(TraceIDKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	traceId := uuid.NewString()
	c.Set(TraceIDKey, traceId)
	return traceId
}
