package middleware

import (
	"net/http"
	"task_tracker/internal/observability"

	"github.com/gin-gonic/gin"
)

const (
	unmatchedRoute = "unmatched"
	otherMethod    = "OTHER"
)

// PrometheusMiddleware records every request against its route template
// (/api/v1/tasks/:id), never the raw path, so task ids stay out of labels.
func PrometheusMiddleware(metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		done := metrics.StartHTTPRequest()
		defer func() {
			done(methodLabel(c.Request.Method), routeLabel(c), c.Writer.Status())
		}()

		c.Next()
	}
}

func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}

func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return method
	}
	return otherMethod
}
