package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"momentum/internal/core"
)

// UpsertBudget sets the monthly limit for a category.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (category, monthly_limit_cents, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (category) DO UPDATE SET
			monthly_limit_cents = excluded.monthly_limit_cents,
			updated_at = excluded.updated_at`,
		b.Category, b.MonthlyLimit.Cents, r.timestamp())
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget saved", "category", b.Category, "limit_cents", b.MonthlyLimit.Cents)
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, category string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE category = ?`, category)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("budget %q: %w", category, core.ErrNotFound)
	}
	return nil
}

// GetBudget returns core.ErrNotFound when the category has no budget.
func (r *SQLiteRepository) GetBudget(ctx context.Context, category string) (core.Budget, error) {
	b := core.Budget{Category: category}
	err := r.db.QueryRowContext(ctx,
		`SELECT monthly_limit_cents FROM budgets WHERE category = ?`, category).Scan(&b.MonthlyLimit.Cents)
	if isNoRows(err) {
		return core.Budget{}, fmt.Errorf("budget %q: %w", category, core.ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category, monthly_limit_cents FROM budgets ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.Category, &b.MonthlyLimit.Cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetSettings returns the stored settings, or the defaults when none were
// saved yet.
func (r *SQLiteRepository) GetSettings(ctx context.Context) (core.Settings, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, `SELECT document FROM settings WHERE id = 1`).Scan(&doc)
	if isNoRows(err) {
		return core.DefaultSettings(), nil
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}

	s := core.DefaultSettings()
	if err := json.Unmarshal([]byte(doc), &s); err != nil {
		return core.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

// SaveSettings replaces the stored settings document.
func (r *SQLiteRepository) SaveSettings(ctx context.Context, s core.Settings) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO settings (id, document, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		string(doc), r.timestamp())
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
