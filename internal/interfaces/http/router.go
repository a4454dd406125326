package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"vendorflow/internal/infrastructure/ratelimit"
	healthhandlers "vendorflow/internal/interfaces/http/handlers/health"
	pipelinehandlers "vendorflow/internal/interfaces/http/handlers/pipeline"
	webhookhandlers "vendorflow/internal/interfaces/http/handlers/webhook"
	"vendorflow/internal/interfaces/http/middleware"
	"vendorflow/internal/interfaces/http/routes"

	_ "vendorflow/docs"
)

var (
	apiRateLimit     = ratelimit.RateLimitConfig{PerMinute: 60, PerHour: 1000}
	webhookRateLimit = ratelimit.RateLimitConfig{PerMinute: 600}
)

// Handler builds the gin engine on first use and returns it.
func (c *Container) Handler() http.Handler {
	if c.engine == nil {
		c.engine = c.buildEngine()
	}
	return c.engine
}

func (c *Container) buildEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(c.log),
		middleware.Logger(c.log.Named("http")),
	)

	routes.SetupPipelineRoutes(engine, &routes.PipelineRouteConfig{
		PipelineHandler: pipelinehandlers.NewHandler(c.pipeline, c.log.Named("http.pipeline")),
		Middleware: []gin.HandlerFunc{
			middleware.RateLimit(c.adapters.limiter, "api", apiRateLimit, c.log),
		},
	})

	routes.SetupWebhookRoutes(engine, &routes.WebhookRouteConfig{
		WebhookHandler: webhookhandlers.NewHandler(
			c.pipeline, c.adapters.dedup, c.cfg.Email.WebhookSecret, c.log.Named("http.webhook"),
		),
		Middleware: []gin.HandlerFunc{
			middleware.RateLimit(c.adapters.limiter, "webhook", webhookRateLimit, c.log),
		},
	})

	routes.SetupSystemRoutes(engine, &routes.SystemRouteConfig{
		HealthHandler: healthhandlers.NewHandler(map[string]healthhandlers.Check{
			"database": c.pingDatabase,
			"redis": func(ctx context.Context) error {
				return c.redis.Ping(ctx).Err()
			},
		}),
		EnableSwagger: c.cfg.Server.Mode != gin.ReleaseMode,
	})

	return engine
}

func (c *Container) pingDatabase(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
