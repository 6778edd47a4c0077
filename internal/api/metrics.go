package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sitrack/sitrack-gin/internal/metrics"
)

// MetricsHandler serves the prometheus scrape endpoint.
func MetricsHandler(c *gin.Context) {
	metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
