package telegram

import (
	"fmt"
	"strings"
	"time"

	"spendtrack/internal/core"
)

const helpText = `Send a message like "Spent $25.50 at Starbucks with Apple Pay" to record a purchase, or a photo of a receipt.

Commands:
/report [YYYY-MM] - spending against budgets
/budgets - monthly budgets
/summary [category] - count and total of recorded transactions`

// FormatTransaction renders t on one line.
func FormatTransaction(t core.Transaction) string {
	return fmt.Sprintf("%s at %s (%s, %s) on %s",
		core.FormatDollars(t.Amount), t.Merchant, t.Category, t.PaymentMethod, t.Date)
}

var statusMarks = map[core.BudgetStatus]string{
	core.StatusGood:    "ok",
	core.StatusWarning: "warning",
	core.StatusOver:    "OVER",
}

// FormatReport renders one line per budgeted category followed by the
// alerts, if any.
func FormatReport(r core.SpendingReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Spending for %s %d\n", time.Month(r.Month), r.Year)
	entries := r.Ordered()
	if len(entries) == 0 {
		sb.WriteString("No budgets set")
		return sb.String()
	}
	for _, s := range entries {
		fmt.Fprintf(&sb, "%s: %s of %s (%.0f%%) %s\n",
			s.Category, core.FormatDollars(s.Spent), core.FormatDollars(s.Budget), s.Percentage, statusMarks[s.Status])
	}
	if alerts := r.Alerts(); len(alerts) > 0 {
		sb.WriteString("\nAlerts:\n")
		for _, s := range alerts {
			if s.Status == core.StatusOver {
				fmt.Fprintf(&sb, "%s is over budget by %s\n", s.Category, core.FormatDollars(s.Remaining.Neg()))
			} else {
				fmt.Fprintf(&sb, "%s has %s left\n", s.Category, core.FormatDollars(s.Remaining))
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatBudgets lists budgets in category order.
func FormatBudgets(b core.BudgetMap) string {
	var lines []string
	for _, c := range core.AllCategories() {
		if v, ok := b[c]; ok {
			lines = append(lines, fmt.Sprintf("%s: %s", c, core.FormatDollars(v)))
		}
	}
	if len(lines) == 0 {
		return "No budgets set"
	}
	return "Monthly budgets\n" + strings.Join(lines, "\n")
}

// FormatSummary renders a count and total, scoped to category when set.
func FormatSummary(s core.Summary, category core.Category) string {
	scope := "All transactions"
	if category != "" {
		scope = string(category)
	}
	return fmt.Sprintf("%s: %d totalling %s", scope, s.Count, core.FormatDollars(s.Total))
}
