package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"cashflow/internal/amqp"
	"cashflow/internal/backend"
	"cashflow/internal/cli"
	"cashflow/internal/log"
	"cashflow/internal/worker"
)

const cleanupInterval = time.Hour

func main() {
	cli.LoadEnvFile()

	boot := cli.SetupLogger(os.Getenv("LOG_LEVEL"), false)
	cfg := cli.LoadAndValidateConfig(boot)
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogJSON).WithComponent(log.ComponentWorker)

	logger.Info("Starting cashflow-worker")

	if !cfg.ExportEnabled() {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}
	if backend.BackendType(cfg.DataBackend) == backend.MemoryBackend {
		logger.Warn("Memory backend is not shared with the server, exports will only see seeded data")
	}

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	be := cli.OpenBackend(ctx, logger, cfg)
	defer be.Close()

	w := worker.NewExportWorker(be.KV, cfg.ExportDir, cfg.Preferences())

	// Drop anything left over from a previous run before consuming.
	if _, err := w.CleanupOld(ctx, cfg.ExportRetention); err != nil {
		logger.Error("Initial export cleanup failed", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqp.ConsumeWithReconnect(gctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, w.HandleExportRequest)
	})
	g.Go(func() error {
		return w.PeriodicCleanup(gctx, cleanupInterval, cfg.ExportRetention)
	})

	logger.Info("Worker started",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"export_dir", cfg.ExportDir,
		"retention", cfg.ExportRetention)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		be.Close()
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
