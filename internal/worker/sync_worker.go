package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"momentum/internal/amqp"
	"momentum/internal/core"
	"momentum/internal/sheets"
	"momentum/internal/storage"
)

// SyncStore is the part of the repository the sync worker needs.
type SyncStore interface {
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	GetPendingSyncTransactions(ctx context.Context, limit int) ([]storage.PendingSyncTransaction, error)
	SyncStatus(ctx context.Context, id int64) (string, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// SyncWorker exports transactions from SQLite to the spreadsheet.
type SyncWorker struct {
	store     SyncStore
	sheets    sheets.TransactionWriter
	batchSize int
}

func NewSyncWorker(store SyncStore, writer sheets.TransactionWriter, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		store:     store,
		sheets:    writer,
		batchSize: batchSize,
	}
}

// HandleSyncMessage exports the transaction named by msg. Rows that are
// already synced or no longer exist are acknowledged without any work, so
// redelivered messages never produce duplicate rows.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	status, err := w.store.SyncStatus(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction deleted before sync, skipping", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get sync status: %w", err)
	}
	if status == storage.SyncSynced {
		slog.InfoContext(ctx, "Transaction already synced, skipping", "id", msg.ID)
		return nil
	}

	t, err := w.store.GetTransaction(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if err := w.syncTransactionToSheets(ctx, t); err != nil {
		return fmt.Errorf("sync transaction to sheets: %w", err)
	}
	return nil
}

// ProcessPendingTransactions exports up to one batch of pending rows and
// returns how many were exported.
func (w *SyncWorker) ProcessPendingTransactions(ctx context.Context) (int, error) {
	pending, err := w.store.GetPendingSyncTransactions(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	synced := 0
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		t, err := w.store.GetTransaction(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load pending transaction", "id", p.ID, "error", err)
			continue
		}
		if err := w.syncTransactionToSheets(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to sync pending transaction", "id", p.ID, "error", err)
			continue
		}
		synced++
	}
	return synced, nil
}

// StartupSyncCheck drains rows left pending by a previous run, for example
// when the broker was down while they were created.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	slog.InfoContext(ctx, "Running startup sync check")

	pending, err := w.store.GetPendingSyncTransactions(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found")
		return nil
	}

	var success, failed int
	for _, p := range pending {
		t, err := w.store.GetTransaction(ctx, p.ID)
		if err == nil {
			err = w.syncTransactionToSheets(ctx, t)
		}
		if err != nil {
			failed++
			slog.ErrorContext(ctx, "Startup sync failed", "id", p.ID, "error", err)
			continue
		}
		success++
	}

	slog.InfoContext(ctx, "Startup sync check completed",
		"total", len(pending),
		"success", success,
		"errors", failed)
	return nil
}

func (w *SyncWorker) syncTransactionToSheets(ctx context.Context, t core.Transaction) error {
	ref, err := w.sheets.Append(ctx, t)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, t.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", t.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	if err := w.store.MarkSynced(ctx, t.ID); err != nil {
		// The row is in the sheet; a failed mark only means a possible
		// re-export on the next startup check.
		slog.ErrorContext(ctx, "Failed to mark transaction as synced", "id", t.ID, "error", err)
	}

	slog.InfoContext(ctx, "Transaction synced to sheets",
		"id", t.ID,
		"ref", ref,
		"category", t.Category,
		"amount", t.Amount.String())
	return nil
}
