package finance

import (
	"sort"

	"github.com/shopspring/decimal"

	"momentum/internal/core"
)

// Budget status labels.
const (
	StatusOnTrack   = "On Track"
	StatusNearLimit = "Near Limit"
	StatusExceeded  = "Exceeded"
)

// NearLimitPercent is where a budget stops being on track.
const NearLimitPercent = 80

// BudgetStatus is a budget evaluated against a month's spending.
type BudgetStatus struct {
	Category string     `json:"category"`
	Limit    core.Money `json:"limit"`
	Spent    core.Money `json:"spent"`
	// Percentage is capped at 100 for display; RawPercentage is not.
	Percentage    float64 `json:"percentage"`
	RawPercentage float64 `json:"raw_percentage"`
	Status        string  `json:"status"`
}

// EvaluateBudget compares spent against the budget limit.
func EvaluateBudget(b core.Budget, spent core.Money) BudgetStatus {
	st := BudgetStatus{
		Category: b.Category,
		Limit:    b.MonthlyLimit,
		Spent:    spent,
	}

	if b.MonthlyLimit.Cents <= 0 {
		// A zero limit is exceeded by any spending at all.
		if spent.Cents > 0 {
			st.Percentage, st.RawPercentage = 100, 100
			st.Status = StatusExceeded
		} else {
			st.Status = StatusOnTrack
		}
		return st
	}

	raw := spent.Decimal().Div(b.MonthlyLimit.Decimal()).Mul(hundred)
	st.RawPercentage, _ = raw.Round(2).Float64()
	st.Percentage, _ = decimal.Min(raw, hundred).Round(2).Float64()
	st.Status = statusLabel(raw)
	return st
}

func statusLabel(pct decimal.Decimal) string {
	switch {
	case pct.GreaterThanOrEqual(hundred):
		return StatusExceeded
	case pct.GreaterThanOrEqual(decimal.NewFromInt(NearLimitPercent)):
		return StatusNearLimit
	default:
		return StatusOnTrack
	}
}

// EvaluateBudgets evaluates every budget against the expenses of year/month.
// The result is ordered by category.
func EvaluateBudgets(budgets []core.Budget, txs []core.Transaction, year, month int) []BudgetStatus {
	spent := SpentByCategory(txs, year, month)
	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, EvaluateBudget(b, core.Money{Cents: spent[b.Category]}))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// SpentByCategory sums expense cents per category for year/month.
func SpentByCategory(txs []core.Transaction, year, month int) map[string]int64 {
	spent := make(map[string]int64)
	for _, t := range txs {
		if t.Type == core.Expense && t.InMonth(year, month) {
			spent[t.Category] += t.Amount.Cents
		}
	}
	return spent
}

// Breached reports whether moving from before to after crosses into a worse
// status, i.e. the budget just became Near Limit or Exceeded.
func Breached(before, after BudgetStatus) bool {
	return severity(after.Status) > severity(before.Status) && after.Status != StatusOnTrack
}

func severity(status string) int {
	switch status {
	case StatusExceeded:
		return 2
	case StatusNearLimit:
		return 1
	default:
		return 0
	}
}
