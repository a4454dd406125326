package routes

import (
	"github.com/gin-gonic/gin"

	pipelinehandlers "vendorflow/internal/interfaces/http/handlers/pipeline"
)

type PipelineRouteConfig struct {
	PipelineHandler *pipelinehandlers.Handler
	// Middleware runs before every pipeline route, typically rate limiting.
	Middleware []gin.HandlerFunc
}

func SetupPipelineRoutes(engine *gin.Engine, config *PipelineRouteConfig) {
	tickets := engine.Group("/api/v1/tickets")
	tickets.Use(config.Middleware...)
	{
		tickets.POST("/:id/discover", config.PipelineHandler.DiscoverVendors)
		tickets.POST("/:id/outreach", config.PipelineHandler.SendOutreach)
		tickets.GET("/:id/rankings", config.PipelineHandler.GetRankings)
		tickets.POST("/:id/quotes/:quoteId/select", config.PipelineHandler.SelectVendor)
	}
}
