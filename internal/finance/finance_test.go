package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum/internal/core"
)

func tx(typ core.TransactionType, cents int64, category string, day int) core.Transaction {
	return core.Transaction{
		Type:     typ,
		Amount:   core.Money{Cents: cents},
		Category: category,
		Date:     core.NewDate(2026, 1, day),
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]core.Transaction{
		tx(core.Income, 10000000, "Salary", 1),
		tx(core.Expense, 250000, "Food", 2),
		tx(core.Expense, 500000, "Rent", 3),
		tx(core.Expense, 125050, "Food", 4),
	})

	assert.Equal(t, int64(10000000), s.Income.Cents)
	assert.Equal(t, int64(875050), s.Expenses.Cents)
	assert.Equal(t, int64(9124950), s.Savings.Cents)
	assert.Equal(t, 91.25, s.SavingsRate)
	assert.Equal(t, "Rent", s.HighestCategory)
	assert.Equal(t, 4, s.Count)

	require.Len(t, s.ByCategory, 2)
	assert.Equal(t, "Rent", s.ByCategory[0].Name)
	assert.Equal(t, int64(375050), s.ByCategory[1].Amount.Cents)
}

func TestSummarize_ZeroIncome(t *testing.T) {
	s := Summarize([]core.Transaction{tx(core.Expense, 50000, "Food", 1)})

	assert.Equal(t, 0.0, s.SavingsRate)
	assert.Equal(t, int64(-50000), s.Savings.Cents)
	assert.Equal(t, "Food", s.HighestCategory)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Income.Cents)
	assert.Zero(t, s.SavingsRate)
	assert.Empty(t, s.HighestCategory)
	assert.Empty(t, s.ByCategory)
}

func TestSummarize_NegativeSavingsRate(t *testing.T) {
	s := Summarize([]core.Transaction{
		tx(core.Income, 100000, "Salary", 1),
		tx(core.Expense, 150000, "Travel", 2),
	})
	assert.Equal(t, -50.0, s.SavingsRate)
}

func TestSummarize_HighestCategoryTieIsAlphabetical(t *testing.T) {
	s := Summarize([]core.Transaction{
		tx(core.Expense, 1000, "Transport", 1),
		tx(core.Expense, 1000, "Bills", 2),
	})
	assert.Equal(t, "Bills", s.HighestCategory)
}

func TestEvaluateBudget(t *testing.T) {
	b := core.Budget{Category: "Food", MonthlyLimit: core.Money{Cents: 100000}}

	tests := []struct {
		name   string
		spent  int64
		pct    float64
		raw    float64
		status string
	}{
		{"nothing spent", 0, 0, 0, StatusOnTrack},
		{"just below near limit", 79000, 79, 79, StatusOnTrack},
		{"on track", 50000, 50, 50, StatusOnTrack},
		{"near limit boundary", 80000, 80, 80, StatusNearLimit},
		{"exactly at limit", 100000, 100, 100, StatusExceeded},
		{"over limit is capped", 150000, 100, 150, StatusExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := EvaluateBudget(b, core.Money{Cents: tt.spent})
			assert.Equal(t, tt.status, st.Status)
			assert.Equal(t, tt.pct, st.Percentage)
			assert.Equal(t, tt.raw, st.RawPercentage)
			assert.LessOrEqual(t, st.Percentage, 100.0)
		})
	}
}

func TestEvaluateBudget_ZeroLimit(t *testing.T) {
	b := core.Budget{Category: "Fun"}
	assert.Equal(t, StatusOnTrack, EvaluateBudget(b, core.Money{}).Status)
	assert.Equal(t, StatusExceeded, EvaluateBudget(b, core.Money{Cents: 1}).Status)
}

func TestEvaluateBudgets(t *testing.T) {
	budgets := []core.Budget{
		{Category: "Shopping", MonthlyLimit: core.Money{Cents: 100000}},
		{Category: "Food", MonthlyLimit: core.Money{Cents: 200000}},
	}
	txs := []core.Transaction{
		tx(core.Expense, 90000, "Shopping", 5),
		tx(core.Expense, 40000, "Food", 6),
		tx(core.Income, 999999, "Food", 7),
		{Type: core.Expense, Amount: core.Money{Cents: 500000}, Category: "Food", Date: core.NewDate(2026, 2, 1)},
	}

	out := EvaluateBudgets(budgets, txs, 2026, 1)
	require.Len(t, out, 2)
	assert.Equal(t, "Food", out[0].Category)
	assert.Equal(t, int64(40000), out[0].Spent.Cents)
	assert.Equal(t, StatusOnTrack, out[0].Status)
	assert.Equal(t, "Shopping", out[1].Category)
	assert.Equal(t, StatusNearLimit, out[1].Status)
}

func TestBreached(t *testing.T) {
	onTrack := BudgetStatus{Status: StatusOnTrack}
	near := BudgetStatus{Status: StatusNearLimit}
	exceeded := BudgetStatus{Status: StatusExceeded}

	assert.True(t, Breached(onTrack, near))
	assert.True(t, Breached(onTrack, exceeded))
	assert.True(t, Breached(near, exceeded))
	assert.False(t, Breached(near, near))
	assert.False(t, Breached(exceeded, exceeded))
	assert.False(t, Breached(onTrack, onTrack))
}

func TestInMonth(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Expense, 1, "a", 31),
		{Type: core.Expense, Amount: core.Money{Cents: 1}, Category: "a", Date: core.NewDate(2026, 2, 1)},
	}
	assert.Len(t, InMonth(txs, 2026, 1), 1)
	assert.Len(t, InMonth(txs, 2026, 2), 1)
	assert.Empty(t, InMonth(txs, 2025, 1))
}
