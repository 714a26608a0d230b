package middleware

import (
	"context"
	"log/slog"

	"storefront/internal/auth"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// Identity is soft authentication: when a bearer token is present and valid
// its claims are attached to the request context, otherwise the request
// proceeds anonymously. Storefront reads and cart operations work for guests,
// so a missing or bad token is never a reason to abort here.
func (m *Mid) Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.GetTraceIdOfRequest(c)

		token := bearerToken(c.Request.Header.Get("Authorization"))
		if token == "" {
			c.Next()
			return
		}

		claims, err := m.keys.ValidateToken(token)
		if err != nil {
			slog.Warn("discarding invalid bearer token", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.ERROR, err.Error()))
			c.Next()
			return
		}

		ctx := context.WithValue(c.Request.Context(), auth.ClaimsKey, claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
