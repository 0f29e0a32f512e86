package services

import (
	"context"
	"fmt"
	"strings"

	"momentum/internal/core"
	"momentum/internal/finance"
	"momentum/internal/storage"
)

// BudgetService manages per-category limits and their monthly status.
type BudgetService struct {
	storage *storage.SQLiteRepository
}

func NewBudgetService(storage *storage.SQLiteRepository) *BudgetService {
	return &BudgetService{storage: storage}
}

func (s *BudgetService) UpsertBudget(ctx context.Context, b core.Budget) error {
	b.Category = strings.TrimSpace(b.Category)
	if err := b.Validate(); err != nil {
		return err
	}
	return s.storage.UpsertBudget(ctx, b)
}

func (s *BudgetService) DeleteBudget(ctx context.Context, category string) error {
	return s.storage.DeleteBudget(ctx, category)
}

func (s *BudgetService) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	return s.storage.ListBudgets(ctx)
}

// Status evaluates every budget against the expenses of year/month.
func (s *BudgetService) Status(ctx context.Context, year, month int) ([]finance.BudgetStatus, error) {
	if month < 1 || month > 12 {
		return nil, core.ErrInvalidMonth
	}
	budgets, err := s.storage.ListBudgets(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := s.storage.ListTransactions(ctx, year, month)
	if err != nil {
		return nil, err
	}
	return finance.EvaluateBudgets(budgets, txs, year, month), nil
}

// SettingsService reads and replaces the settings record.
type SettingsService struct {
	storage *storage.SQLiteRepository
}

func NewSettingsService(storage *storage.SQLiteRepository) *SettingsService {
	return &SettingsService{storage: storage}
}

func (s *SettingsService) Get(ctx context.Context) (core.Settings, error) {
	return s.storage.GetSettings(ctx)
}

// Replace validates and stores next in place of the current settings.
func (s *SettingsService) Replace(ctx context.Context, next core.Settings) (core.Settings, error) {
	next.Currency = strings.ToUpper(strings.TrimSpace(next.Currency))
	if err := next.Validate(); err != nil {
		return core.Settings{}, err
	}
	if err := s.storage.SaveSettings(ctx, next); err != nil {
		return core.Settings{}, err
	}
	return next, nil
}

// Toggle flips one boolean setting and stores the resulting record.
func (s *SettingsService) Toggle(ctx context.Context, key string) (core.Settings, error) {
	cur, err := s.storage.GetSettings(ctx)
	if err != nil {
		return core.Settings{}, err
	}
	next, err := cur.Toggle(key)
	if err != nil {
		return core.Settings{}, err
	}
	if err := s.storage.SaveSettings(ctx, next); err != nil {
		return core.Settings{}, fmt.Errorf("toggle %s: %w", key, err)
	}
	return next, nil
}
