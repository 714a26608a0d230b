package ctxmanage

import (
	"context"

	"github.com/gin-gonic/gin"
)

type key int

const TraceIdKey key = 1

// GetTraceIdOfRequest returns the trace id stamped on the request by the
// logger middleware, or "unknown" if the middleware did not run.
func GetTraceIdOfRequest(c *gin.Context) string {
	ctx := c.Request.Context()
	traceId, ok := ctx.Value(TraceIdKey).(string)
	if !ok {
		return "unknown"
	}
	return traceId
}

// WithTraceId stores the trace id on the context for downstream handlers.
func WithTraceId(ctx context.Context, traceId string) context.Context {
	return context.WithValue(ctx, TraceIdKey, traceId)
}
