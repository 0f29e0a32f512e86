package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"momentum/internal/core"
)

// Sync states of a transaction row with respect to the spreadsheet export.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

const transactionColumns = `id, type, tx_date, amount_cents, category, description, merchant,
	card_last4, COALESCE(source_email_id, ''), created_at`

// PendingSyncTransaction is the minimal data needed to queue a sync message.
type PendingSyncTransaction struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		t         core.Transaction
		typ, day  string
		createdAt string
	)
	err := s.Scan(&t.ID, &typ, &day, &t.Amount.Cents, &t.Category, &t.Description,
		&t.Merchant, &t.CardLast4, &t.SourceEmailID, &createdAt)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	d, err := core.ParseDate(day)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", t.ID, err)
	}
	t.Date = d
	t.CreatedAt = parseTimestamp(createdAt)
	return t, nil
}

// CreateTransaction inserts t and returns it with its id and creation time.
// A transaction whose SourceEmailID is already stored yields core.ErrDuplicate.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	var source any
	if t.SourceEmailID != "" {
		source = t.SourceEmailID
	}

	created := r.timestamp()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (type, tx_date, amount_cents, category, description, merchant,
			card_last4, source_email_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		string(t.Type), t.Date.String(), t.Amount.Cents, t.Category, t.Description, t.Merchant,
		t.CardLast4, source, created)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	if n == 0 {
		return core.Transaction{}, fmt.Errorf("source email %s: %w", t.SourceEmailID, core.ErrDuplicate)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	t.ID = id
	t.CreatedAt = parseTimestamp(created)

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"type", t.Type,
		"amount_cents", t.Amount.Cents,
		"category", t.Category,
		"date", t.Date.String())

	return t, nil
}

// GetTransaction returns core.ErrNotFound for unknown ids.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if isNoRows(err) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns the transactions dated in year/month, oldest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, year, month int) ([]core.Transaction, error) {
	from := core.NewDate(year, month, 1)
	to := core.DateOf(from.AddDate(0, 1, 0))
	return r.listTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE tx_date >= ? AND tx_date < ? ORDER BY tx_date, id`,
		from.String(), to.String())
}

func (r *SQLiteRepository) listTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

// DeleteTransaction returns core.ErrNotFound when nothing was deleted.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// HasSourceEmail reports whether a transaction was already created from the
// given provider message id.
func (r *SQLiteRepository) HasSourceEmail(ctx context.Context, sourceEmailID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM transactions WHERE source_email_id = ? LIMIT 1`, sourceEmailID).Scan(&one)
	if isNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check source email: %w", err)
	}
	return true, nil
}

// GetPendingSyncTransactions returns rows not yet exported, oldest first.
func (r *SQLiteRepository) GetPendingSyncTransactions(ctx context.Context, limit int) ([]PendingSyncTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version, created_at FROM transactions
		WHERE sync_status = ? ORDER BY created_at, id LIMIT ?`, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()

	var out []PendingSyncTransaction
	for rows.Next() {
		var (
			p         PendingSyncTransaction
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.Version, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pending sync transaction: %w", err)
		}
		p.CreatedAt = parseTimestamp(createdAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced marks a transaction as exported.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	return r.setSyncStatus(ctx, id, SyncSynced)
}

// MarkSyncError marks a transaction whose export failed for good.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if err := r.setSyncStatus(ctx, id, SyncError); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

func (r *SQLiteRepository) setSyncStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = ?, version = version + 1 WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("mark transaction %s: %w", status, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// SyncStatus returns the export state of a transaction.
func (r *SQLiteRepository) SyncStatus(ctx context.Context, id int64) (string, error) {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT sync_status FROM transactions WHERE id = ?`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get sync status: %w", err)
	}
	return status, nil
}
