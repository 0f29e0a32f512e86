package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"momentum/internal/backend"
	"momentum/internal/cli"
	"momentum/internal/log"
	"momentum/internal/worker"
)

func main() {
	cfg, logger := cli.MustLoad(log.ComponentWorker)
	logger.Info("Starting momentum-worker")

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	app, err := backend.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	exporter, kind, err := backend.NewExporter(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize exporter", "error", err)
		os.Exit(1)
	}
	logger.WithComponent(log.ComponentSheets).Info("Exporter initialized", "exporter", kind.String())

	syncWorker := worker.NewSyncWorker(app.Repo, exporter, cfg.SyncBatchSize)

	// Rows left pending by a previous run, e.g. while the broker was down.
	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return worker.NewPoller(syncWorker.ProcessPendingTransactions, worker.PollerConfig{
			Name:     "pending-sync",
			Interval: cfg.SyncInterval,
		}).Run(ctx)
	})

	if app.Ingest.HasSource() {
		g.Go(func() error {
			return worker.NewPoller(worker.IngestTask(app.Ingest), worker.PollerConfig{
				Name:       "gmail-ingest",
				Interval:   cfg.EmailPollInterval,
				RunOnStart: true,
			}).Run(ctx)
		})
	} else {
		logger.WithComponent(log.ComponentGmail).Info("Skipping email ingestion - no mailbox configured")
	}

	if app.AMQP != nil {
		g.Go(func() error {
			return app.AMQP.ConsumeTransactionSync(ctx, syncWorker.HandleSyncMessage)
		})
		g.Go(func() error {
			return app.AMQP.ConsumeBudgetAlerts(ctx, worker.LogBudgetAlert)
		})
	} else {
		logger.WithComponent(log.ComponentAMQP).Info("Skipping AMQP consumption - messaging disabled")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		app.Close()
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
