package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/regdraft-backend/internal/observability"
)

// Metrics counts requests by method, matched route and status.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.HTTPRequest(c.Request.Context(), c.Request.Method, route, c.Writer.Status())
	}
}
