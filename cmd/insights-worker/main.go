package main

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
	"spese-insights/internal/amqp"
	"spese-insights/internal/cli"
	"spese-insights/internal/config"
	"spese-insights/internal/log"
	"spese-insights/internal/worker"
)

func main() {
	cfg, cfgErr := cli.LoadConfig((*config.Config).Validate)
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	if cfgErr != nil {
		cli.Fatal(logger, "Configuration validation failed", cfgErr)
	}

	logger.Info("Starting insights-worker",
		log.FieldOperation, log.OpStartup,
		"db_path", cfg.SQLiteDBPath,
		"queue", cfg.AMQPQueue)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	ingest := worker.NewIngestWorker(repo, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ingest.Run(gctx, client)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Stopping insights-worker", log.FieldOperation, log.OpShutdown)
		return client.Close()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		return
	}
	logger.Info("Worker stopped gracefully")
}
