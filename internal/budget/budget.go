// Package budget aggregates transactions into per-category monthly spend and
// evaluates it against a budget map. All functions are pure: inputs are
// never mutated and results are freshly allocated.
package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"spendtrack/internal/core"
)

var (
	hundred          = decimal.NewFromInt(100)
	warningThreshold = decimal.NewFromInt(80)
)

// ComputeSpending sums the amounts of transactions dated in the same
// calendar month as ref, per budgeted category. Every category present in
// budgets appears in the result, zero when nothing was spent. Transactions
// in unbudgeted categories or other months are skipped.
func ComputeSpending(txs []core.Transaction, budgets core.BudgetMap, ref time.Time) map[core.Category]decimal.Decimal {
	spent := make(map[core.Category]decimal.Decimal, len(budgets))
	for c := range budgets {
		spent[c] = decimal.Zero
	}
	for _, t := range txs {
		if !t.Date.SameMonth(ref) {
			continue
		}
		cur, ok := spent[t.Category]
		if !ok {
			continue
		}
		spent[t.Category] = cur.Add(t.Amount)
	}
	return spent
}

// BuildReport evaluates the month of ref against budgets. Categories with a
// zero (or negative) budget are left out of the report.
func BuildReport(txs []core.Transaction, budgets core.BudgetMap, ref time.Time) core.SpendingReport {
	spent := ComputeSpending(txs, budgets, ref)
	report := core.SpendingReport{
		Year:       ref.Year(),
		Month:      int(ref.Month()),
		Categories: make(map[core.Category]core.CategoryStatus, len(budgets)),
	}
	for c, limit := range budgets {
		if !limit.IsPositive() {
			continue
		}
		report.Categories[c] = Evaluate(c, spent[c], limit)
	}
	return report
}

// Evaluate computes the status of one category. limit must be positive.
func Evaluate(c core.Category, spent, limit decimal.Decimal) core.CategoryStatus {
	pct := spent.Div(limit).Mul(hundred)
	return core.CategoryStatus{
		Category:   c,
		Spent:      spent,
		Budget:     limit,
		Percentage: pct.InexactFloat64(),
		Remaining:  limit.Sub(spent),
		Status:     statusFor(pct),
	}
}

func statusFor(pct decimal.Decimal) core.BudgetStatus {
	switch {
	case pct.GreaterThanOrEqual(hundred):
		return core.StatusOver
	case pct.GreaterThanOrEqual(warningThreshold):
		return core.StatusWarning
	default:
		return core.StatusGood
	}
}
