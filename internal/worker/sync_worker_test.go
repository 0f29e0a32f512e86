package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum/internal/amqp"
	"momentum/internal/core"
	"momentum/internal/sheets/memory"
	"momentum/internal/storage"
)

type failingWriter struct{ calls int }

func (f *failingWriter) Append(context.Context, core.Transaction) (string, error) {
	f.calls++
	return "", errors.New("quota exceeded")
}

func newRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seed(t *testing.T, repo *storage.SQLiteRepository, cents int64) core.Transaction {
	t.Helper()
	tx, err := repo.CreateTransaction(context.Background(), core.Transaction{
		Type:     core.Expense,
		Date:     core.NewDate(2026, 2, 3),
		Amount:   core.Money{Cents: cents},
		Category: "Food",
		Merchant: "SWIGGY",
	})
	require.NoError(t, err)
	return tx
}

func TestHandleSyncMessage_ExportsOnce(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	sheet := memory.New()
	w := NewSyncWorker(repo, sheet, 10)

	tx := seed(t, repo, 45000)
	msg := amqp.NewTransactionSyncMessage(tx.ID, 1)

	require.NoError(t, w.HandleSyncMessage(ctx, msg))
	require.NoError(t, w.HandleSyncMessage(ctx, msg))
	assert.Equal(t, 1, sheet.Len())

	status, err := repo.SyncStatus(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.SyncSynced, status)
}

func TestHandleSyncMessage_DeletedTransaction(t *testing.T) {
	repo := newRepo(t)
	sheet := memory.New()
	w := NewSyncWorker(repo, sheet, 10)

	err := w.HandleSyncMessage(context.Background(), amqp.NewTransactionSyncMessage(404, 1))
	require.NoError(t, err)
	assert.Zero(t, sheet.Len())
}

func TestHandleSyncMessage_AppendFailureMarksError(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	writer := &failingWriter{}
	w := NewSyncWorker(repo, writer, 10)

	tx := seed(t, repo, 100)
	err := w.HandleSyncMessage(ctx, amqp.NewTransactionSyncMessage(tx.ID, 1))
	require.Error(t, err)
	assert.Equal(t, 1, writer.calls)

	status, err := repo.SyncStatus(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.SyncError, status)
}

func TestProcessPendingTransactions(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	sheet := memory.New()
	w := NewSyncWorker(repo, sheet, 2)

	for i := 1; i <= 3; i++ {
		seed(t, repo, int64(i*100))
	}

	n, err := w.ProcessPendingTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = w.ProcessPendingTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = w.ProcessPendingTransactions(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 3, sheet.Len())
}

func TestStartupSyncCheck(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	sheet := memory.New()
	w := NewSyncWorker(repo, sheet, 1)

	seed(t, repo, 100)
	seed(t, repo, 200)

	require.NoError(t, w.StartupSyncCheck(ctx))
	assert.Equal(t, 2, sheet.Len())

	pending, err := repo.GetPendingSyncTransactions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
