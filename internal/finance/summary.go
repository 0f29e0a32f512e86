// Package finance aggregates transactions into monthly summaries and
// evaluates spending against per-category budgets.
package finance

import (
	"sort"

	"github.com/shopspring/decimal"

	"momentum/internal/core"
)

// Summary is the aggregate of a set of transactions.
type Summary struct {
	Income      core.Money `json:"income"`
	Expenses    core.Money `json:"expenses"`
	Savings     core.Money `json:"savings"`
	SavingsRate float64    `json:"savings_rate"`

	// HighestCategory is the expense category with the largest total, empty
	// when there are no expenses.
	HighestCategory string `json:"highest_category"`

	// ByCategory lists expense totals, largest first.
	ByCategory []core.CategoryAmount `json:"by_category"`
	Count      int                   `json:"count"`
}

var hundred = decimal.NewFromInt(100)

// Summarize totals income and expenses. Savings may be negative. The savings
// rate is savings/income × 100 rounded to two decimals, and 0 when there is
// no income.
func Summarize(txs []core.Transaction) Summary {
	var s Summary
	byCat := make(map[string]int64)

	for _, t := range txs {
		switch t.Type {
		case core.Income:
			s.Income = s.Income.Add(t.Amount)
		case core.Expense:
			s.Expenses = s.Expenses.Add(t.Amount)
			byCat[t.Category] += t.Amount.Cents
		default:
			continue
		}
		s.Count++
	}

	s.Savings = s.Income.Sub(s.Expenses)
	s.SavingsRate = SavingsRate(s.Income, s.Savings)
	s.ByCategory = sortCategories(byCat)
	if len(s.ByCategory) > 0 {
		s.HighestCategory = s.ByCategory[0].Name
	}
	return s
}

// SavingsRate returns savings as a percentage of income.
func SavingsRate(income, savings core.Money) float64 {
	if income.Cents == 0 {
		return 0
	}
	rate := savings.Decimal().Div(income.Decimal()).Mul(hundred).Round(2)
	f, _ := rate.Float64()
	return f
}

// sortCategories orders by amount descending, then name ascending so ties
// resolve the same way every time.
func sortCategories(byCat map[string]int64) []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(byCat))
	for name, cents := range byCat {
		out = append(out, core.CategoryAmount{Name: name, Amount: core.Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// InMonth returns the transactions dated in year/month.
func InMonth(txs []core.Transaction, year, month int) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if t.InMonth(year, month) {
			out = append(out, t)
		}
	}
	return out
}
