package main

import (
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"cashflow/internal/amqp"
	"cashflow/internal/cli"
	apphttp "cashflow/internal/http"
	"cashflow/internal/log"
	"cashflow/internal/services"
	"cashflow/internal/session"
	gsheet "cashflow/internal/sheets/google"
	"cashflow/internal/state"
)

func main() {
	cli.LoadEnvFile()

	boot := cli.SetupLogger(os.Getenv("LOG_LEVEL"), false)
	cfg := cli.LoadAndValidateConfig(boot)
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogJSON)

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	be := cli.OpenBackend(ctx, logger, cfg)

	store := state.Open(ctx, be.KV, cfg.Preferences(), logger.Slog())
	sess := session.New(ctx, store, session.Options{
		Delay:  cfg.AuthDelay,
		Logger: logger.Slog(),
	})

	opts := services.Options{
		Storage:     closer(be.Close),
		ImportDelay: cfg.AuthDelay,
		Logger:      logger,
	}

	if cfg.ExportEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without export", log.FieldError, err)
		} else {
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
			opts.Publisher = client
		}
	}

	if cfg.SheetsEnabled() {
		tables, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Warn("Failed to initialize Google Sheets client, sheet import disabled", log.FieldError, err)
		} else {
			opts.Tables = tables
		}
	}

	svc := services.NewLedgerService(store, sess, opts)

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:            logger,
		Ready:             be.Ready,
		RequestsPerMinute: cfg.RateLimitPerMinute,
		AISummaryKey:      cfg.APIKey,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting cashflow server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"export_enabled", svc.ExportEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := cli.ShutdownContext(30 * time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		return nil
	})

	err := g.Wait()
	if cerr := svc.Close(); cerr != nil {
		logger.Error("Failed to close ledger service", log.FieldError, cerr)
	}
	if err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

type closer func() error

func (c closer) Close() error { return c() }
