package backend

import (
	"context"
	"fmt"
	"time"

	"momentum/internal/amqp"
	"momentum/internal/cache"
	"momentum/internal/config"
	"momentum/internal/finance"
	"momentum/internal/log"
	"momentum/internal/mail/gmail"
	"momentum/internal/mailparse"
	"momentum/internal/secret"
	"momentum/internal/services"
	"momentum/internal/storage"
)

const (
	summaryCacheSize = 100
	summaryCacheTTL  = 5 * time.Minute
	janitorInterval  = time.Minute
)

// Build opens the database and wires every service. Messaging and the
// mailbox are optional: when either cannot be set up Build logs a warning
// and continues without it.
func Build(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite repository: %w", err)
	}

	app := &App{Config: cfg, Logger: logger, Repo: repo}
	app.onClose(repo.Close)

	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPAlertQueue)
		if err != nil {
			logger.WithComponent(log.ComponentAMQP).WarnContext(ctx, "Failed to initialize AMQP client, continuing without messaging", "error", err)
		} else {
			app.AMQP = client
			publisher = client
			app.onClose(client.Close)
			logger.WithComponent(log.ComponentAMQP).InfoContext(ctx, "Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue,
				"alert_queue", cfg.AMQPAlertQueue)
		}
	}

	app.Summaries = cache.NewLRU[finance.Summary](summaryCacheSize, summaryCacheTTL)
	janitor := cache.NewJanitor(app.Summaries)
	janitor.Start(janitorInterval)
	app.onClose(func() error {
		janitor.Stop()
		return nil
	})

	app.Transactions = services.NewTransactionService(repo, publisher, app.Summaries)
	app.Habits = services.NewHabitService(repo)
	app.Budgets = services.NewBudgetService(repo)
	app.Settings = services.NewSettingsService(repo)

	var source services.MailSource
	if cfg.GmailEnabled() {
		if src, err := connectMailbox(ctx, cfg, repo); err != nil {
			logger.WithComponent(log.ComponentGmail).WarnContext(ctx, "Gmail mailbox unavailable, email sync disabled", "error", err)
		} else {
			source = src
		}
	}
	app.Ingest = services.NewIngestService(repo, app.Transactions, source,
		mailparse.DefaultRegistry(), mailparse.DefaultCategorizer(), cfg.EmailBatchSize)

	logger.InfoContext(ctx, "Backend initialized",
		"db_path", cfg.SQLiteDBPath,
		"amqp_enabled", app.AMQP != nil,
		"mailbox_enabled", source != nil)
	return app, nil
}

func connectMailbox(ctx context.Context, cfg *config.Config, repo *storage.SQLiteRepository) (*gmail.Source, error) {
	box, err := secret.NewBoxFromHex(cfg.TokenEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("token encryption key: %w", err)
	}
	clientJSON, err := cfg.GmailClientJSON()
	if err != nil {
		return nil, err
	}
	src, err := gmail.Connect(ctx, clientJSON, repo, box, cfg.GmailQuery)
	if err != nil {
		return nil, fmt.Errorf("connect gmail (run oauth-init first?): %w", err)
	}
	return src, nil
}
