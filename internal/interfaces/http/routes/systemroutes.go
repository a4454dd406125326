package routes

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	healthhandlers "vendorflow/internal/interfaces/http/handlers/health"
)

type SystemRouteConfig struct {
	HealthHandler *healthhandlers.Handler
	// EnableSwagger serves the API docs under /swagger.
	EnableSwagger bool
}

func SetupSystemRoutes(engine *gin.Engine, config *SystemRouteConfig) {
	engine.GET("/healthz", config.HealthHandler.Healthz)

	if config.EnableSwagger {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}
