package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vendorflow/internal/infrastructure/config"
	"vendorflow/internal/infrastructure/database"
	"vendorflow/internal/infrastructure/scheduler"
	"vendorflow/internal/infrastructure/telemetry"
	httpRouter "vendorflow/internal/interfaces/http"
	"vendorflow/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the background maintenance jobs",
		Long:  `Run the outreach expiry sweep and resume verification calls left pending by a crashed run.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, false); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	log := logger.NewLogger().Named("worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(ctx, &cfg.Telemetry, log.Named("telemetry"))
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	container, err := httpRouter.NewContainer(cfg, database.Get(), log)
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}

	manager, err := scheduler.NewSchedulerManager(log.Named("scheduler"))
	if err != nil {
		container.Shutdown(context.Background())
		return err
	}
	if err := manager.RegisterPipelineJobs(container.PipelineJobs()); err != nil {
		container.Shutdown(context.Background())
		return fmt.Errorf("failed to register jobs: %w", err)
	}

	manager.Start()
	log.Infow("worker started", "jobs", len(manager.Jobs()))

	<-ctx.Done()
	log.Infow("stopping worker")

	if err := manager.Stop(); err != nil {
		log.Errorw("failed to stop scheduler", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	container.Shutdown(shutdownCtx)
	return nil
}
