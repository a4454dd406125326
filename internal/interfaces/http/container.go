package http

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"vendorflow/internal/application/pipeline"
	"vendorflow/internal/domain/shared/events"
	"vendorflow/internal/infrastructure/cache"
	"vendorflow/internal/infrastructure/config"
	"vendorflow/internal/infrastructure/scheduler"
	"vendorflow/internal/shared/logger"
)

const eventBufferSize = 100

// Container holds the infrastructure, repositories, use cases and the pipeline
// service, wired together once per process. The HTTP server and the worker
// both build one.
type Container struct {
	cfg        *config.Config
	log        logger.Interface
	db         *gorm.DB
	redis      *redis.Client
	dispatcher *events.InMemoryEventDispatcher

	repos    *repositories
	adapters *adapters
	ucs      *useCases
	pipeline *pipeline.Service

	engine *gin.Engine
}

// NewContainer connects to Redis, builds every adapter and use case, and
// starts the event dispatcher. db must already be open.
func NewContainer(cfg *config.Config, db *gorm.DB, log logger.Interface) (*Container, error) {
	redisClient, err := cache.NewRedisClient(&cfg.Redis, log)
	if err != nil {
		return nil, err
	}

	c := &Container{
		cfg:        cfg,
		log:        log,
		db:         db,
		redis:      redisClient,
		dispatcher: events.NewInMemoryEventDispatcher(eventBufferSize, log.Named("events")),
	}

	c.repos = newRepositories(db)
	if c.adapters, err = newAdapters(cfg, redisClient); err != nil {
		redisClient.Close()
		return nil, err
	}
	c.ucs = newUseCases(cfg, db, c.repos, c.adapters, c.dispatcher, log)
	c.pipeline = pipeline.NewService(
		c.ucs.pipeline,
		cache.NewRedisRunLocker(redisClient, log.Named("runlock")),
		pipeline.Config{
			AutoOutreach: cfg.Pipeline.AutoOutreach,
			RunLockTTL:   cfg.Pipeline.RunLockTTL,
		},
		log.Named("pipeline"),
	)

	if err := c.pipeline.SubscribeAutoOutreach(c.dispatcher); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("failed to subscribe auto outreach: %w", err)
	}
	if err := c.dispatcher.Start(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("failed to start event dispatcher: %w", err)
	}

	return c, nil
}

func (c *Container) Pipeline() *pipeline.Service {
	return c.pipeline
}

// PipelineJobs returns the maintenance jobs the worker schedules.
func (c *Container) PipelineJobs() scheduler.PipelineJobs {
	return scheduler.PipelineJobs{
		ExpireOutreach: c.ucs.expireOutreach,
		ResumeCalls:    c.ucs.resumeCalls,
	}
}

// Shutdown waits for in-flight pipeline runs, bounded by ctx, then releases
// the dispatcher and Redis.
func (c *Container) Shutdown(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		c.pipeline.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.log.Infow("pipeline runs drained")
	case <-ctx.Done():
		c.log.Warnw("shutdown deadline reached with pipeline runs in flight")
	}

	if err := c.dispatcher.Stop(); err != nil {
		c.log.Errorw("failed to stop event dispatcher", "error", err)
	}
	if err := c.redis.Close(); err != nil {
		c.log.Errorw("failed to close redis", "error", err)
	}
}
