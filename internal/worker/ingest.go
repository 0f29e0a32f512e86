package worker

import (
	"context"
	"errors"
	"log/slog"

	"momentum/internal/amqp"
	"momentum/internal/core"
	"momentum/internal/services"
)

// Ingester runs one mailbox ingestion pass.
type Ingester interface {
	Run(ctx context.Context) (core.IngestRun, error)
}

// IngestTask adapts an Ingester to a poller Task that reports the number
// of inserted transactions. A disabled email_sync setting skips the tick.
func IngestTask(ing Ingester) Task {
	return func(ctx context.Context) (int, error) {
		run, err := ing.Run(ctx)
		if errors.Is(err, services.ErrEmailSyncDisabled) {
			slog.DebugContext(ctx, "Email sync disabled, skipping ingest")
			return 0, nil
		}
		if err != nil {
			return run.Inserted, err
		}
		return run.Inserted, nil
	}
}

// LogBudgetAlert is a budget alert consumer that records each alert.
func LogBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	slog.WarnContext(ctx, "Budget alert",
		"category", msg.Category,
		"status", msg.Status,
		"percentage", msg.Percentage,
		"spent", msg.Spent,
		"limit", msg.Limit,
		"year", msg.Year,
		"month", msg.Month)
	return nil
}
