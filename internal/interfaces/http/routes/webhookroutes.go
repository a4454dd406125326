package routes

import (
	"github.com/gin-gonic/gin"

	webhookhandlers "vendorflow/internal/interfaces/http/handlers/webhook"
)

type WebhookRouteConfig struct {
	WebhookHandler *webhookhandlers.Handler
	Middleware     []gin.HandlerFunc
}

func SetupWebhookRoutes(engine *gin.Engine, config *WebhookRouteConfig) {
	webhooks := engine.Group("/webhooks")
	webhooks.Use(config.Middleware...)
	{
		webhooks.POST("/email", config.WebhookHandler.HandleEmail)
	}
}
