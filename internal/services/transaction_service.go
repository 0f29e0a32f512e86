package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"momentum/internal/amqp"
	"momentum/internal/cache"
	"momentum/internal/core"
	"momentum/internal/finance"
	"momentum/internal/log"
	"momentum/internal/storage"
)

// Publisher is the messaging side of the service layer. *amqp.Client
// implements it.
type Publisher interface {
	PublishTransactionSync(ctx context.Context, id, version int64) error
	PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error
}

const summaryKind = "summary"

// TransactionService orchestrates transaction writes across SQLite, AMQP
// and the summary cache.
type TransactionService struct {
	storage   *storage.SQLiteRepository
	publisher Publisher
	summaries cache.Cache[finance.Summary]
}

// NewTransactionService wires the service. publisher and summaries may be nil.
func NewTransactionService(storage *storage.SQLiteRepository, publisher Publisher, summaries cache.Cache[finance.Summary]) *TransactionService {
	return &TransactionService{
		storage:   storage,
		publisher: publisher,
		summaries: summaries,
	}
}

// CreateTransaction saves t locally, queues it for export and raises a
// budget alert when the new expense pushes its category into Near Limit or
// Exceeded. Messaging failures are logged and never fail the write.
func (s *TransactionService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	before, tracked, err := s.budgetStatus(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}

	created, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.invalidate(created.Date)
	log.NewStructuredLogger(log.FromContext(ctx)).LogTransactionCreated(ctx, created)

	if err := s.publishSync(ctx, created.ID, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", created.ID, "error", err)
	}

	if tracked {
		after := finance.EvaluateBudget(
			core.Budget{Category: before.Category, MonthlyLimit: before.Limit},
			before.Spent.Add(created.Amount),
		)
		if finance.Breached(before, after) {
			s.alert(ctx, after, created.Date)
		}
	}

	return created, nil
}

// budgetStatus evaluates the budget t would count against, before t is
// stored. tracked is false for income, for categories without a budget and
// when budget alerts are switched off.
func (s *TransactionService) budgetStatus(ctx context.Context, t core.Transaction) (finance.BudgetStatus, bool, error) {
	if t.Type != core.Expense {
		return finance.BudgetStatus{}, false, nil
	}

	settings, err := s.storage.GetSettings(ctx)
	if err != nil {
		return finance.BudgetStatus{}, false, err
	}
	if !settings.BudgetAlerts {
		return finance.BudgetStatus{}, false, nil
	}

	budget, err := s.storage.GetBudget(ctx, t.Category)
	if errors.Is(err, core.ErrNotFound) {
		return finance.BudgetStatus{}, false, nil
	}
	if err != nil {
		return finance.BudgetStatus{}, false, err
	}

	year, month := t.Date.Year(), t.Date.Month()
	txs, err := s.storage.ListTransactions(ctx, year, month)
	if err != nil {
		return finance.BudgetStatus{}, false, err
	}
	spent := finance.SpentByCategory(txs, year, month)[t.Category]
	return finance.EvaluateBudget(budget, core.Money{Cents: spent}), true, nil
}

func (s *TransactionService) alert(ctx context.Context, st finance.BudgetStatus, day core.Date) {
	slog.WarnContext(ctx, "Budget threshold crossed",
		"category", st.Category,
		"status", st.Status,
		"percentage", st.Percentage)

	if s.publisher == nil {
		return
	}
	msg := &amqp.BudgetAlertMessage{
		Category:   st.Category,
		Status:     st.Status,
		Percentage: st.Percentage,
		Spent:      st.Spent.String(),
		Limit:      st.Limit.String(),
		Year:       day.Year(),
		Month:      day.Month(),
		Timestamp:  time.Now(),
	}
	if err := s.publisher.PublishBudgetAlert(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish budget alert", "category", st.Category, "error", err)
	}
}

func (s *TransactionService) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, id)
}

// ListTransactions returns the transactions dated in year/month.
func (s *TransactionService) ListTransactions(ctx context.Context, year, month int) ([]core.Transaction, error) {
	if month < 1 || month > 12 {
		return nil, core.ErrInvalidMonth
	}
	return s.storage.ListTransactions(ctx, year, month)
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, id int64) error {
	t, err := s.storage.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.invalidate(t.Date)
	return nil
}

// Summary aggregates year/month, served from the cache when possible.
func (s *TransactionService) Summary(ctx context.Context, year, month int) (finance.Summary, error) {
	key := cache.MonthKey(summaryKind, year, month)
	if s.summaries != nil {
		if sum, ok := s.summaries.Get(key); ok {
			return sum, nil
		}
	}

	txs, err := s.ListTransactions(ctx, year, month)
	if err != nil {
		return finance.Summary{}, err
	}
	sum := finance.Summarize(txs)
	if s.summaries != nil {
		s.summaries.Set(key, sum)
	}
	return sum, nil
}

func (s *TransactionService) invalidate(day core.Date) {
	if s.summaries != nil {
		s.summaries.Delete(cache.MonthKey(summaryKind, day.Year(), day.Month()))
	}
}

func (s *TransactionService) publishSync(ctx context.Context, id, version int64) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No publisher configured, transaction left pending for the sync sweep", "id", id)
		return nil
	}
	return s.publisher.PublishTransactionSync(ctx, id, version)
}
