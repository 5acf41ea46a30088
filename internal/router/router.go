// Package router wires HTTP routes to handlers.
package router

import (
	"github.com/gin-gonic/gin"

	"docsense/internal/handler"
	"docsense/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	extractionH *handler.ExtractionHandler,
	healthH *handler.HealthHandler,
	corsOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(corsOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	extractions := v1.Group("/extractions")
	extractions.POST("", extractionH.Create)
	extractions.GET("", extractionH.List)
	extractions.GET("/export", extractionH.Export)
	extractions.GET("/:id", extractionH.GetByID)
	extractions.GET("/:id/result", extractionH.GetResult)
	extractions.POST("/:id/retry", extractionH.Retry)
	extractions.DELETE("/:id", extractionH.Delete)

	return r
}
