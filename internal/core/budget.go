package core

import (
	"github.com/shopspring/decimal"
)

// Budget statuses reported per category.
const (
	StatusGood    BudgetStatus = "good"
	StatusWarning BudgetStatus = "warning"
	StatusOver    BudgetStatus = "over"
)

type (
	BudgetStatus string

	// BudgetMap maps a category to its monthly spending limit.
	BudgetMap map[Category]decimal.Decimal

	// CategoryStatus is the spend-vs-budget view of one category.
	CategoryStatus struct {
		Category   Category        `json:"category"`
		Spent      decimal.Decimal `json:"spent"`
		Budget     decimal.Decimal `json:"budget"`
		Percentage float64         `json:"percentage"`
		Remaining  decimal.Decimal `json:"remaining"`
		Status     BudgetStatus    `json:"status"`
	}

	// SpendingReport is a point-in-time view of spending for one month.
	SpendingReport struct {
		Year       int                         `json:"year"`
		Month      int                         `json:"month"` // 1-12
		Categories map[Category]CategoryStatus `json:"categories"`
	}
)

var defaultBudgets = map[Category]int64{
	FoodAndDining:     500,
	Groceries:         600,
	Shopping:          200,
	Transportation:    150,
	Entertainment:     150,
	BillsAndUtilities: 300,
	Healthcare:        100,
	Personal:          100,
	Other:             200,
}

// DefaultBudgets returns the preset budget map used when none is stored.
func DefaultBudgets() BudgetMap {
	out := make(BudgetMap, len(defaultBudgets))
	for c, v := range defaultBudgets {
		out[c] = decimal.NewFromInt(v)
	}
	return out
}

// Clone returns an independent copy of the map.
func (b BudgetMap) Clone() BudgetMap {
	out := make(BudgetMap, len(b))
	for c, v := range b {
		out[c] = v
	}
	return out
}

// Validate rejects categories outside the closed set and negative limits.
func (b BudgetMap) Validate() error {
	for c, v := range b {
		if !c.IsValid() {
			return ErrInvalidCategory
		}
		if v.IsNegative() {
			return ErrInvalidAmount
		}
	}
	return nil
}

// Ordered returns the report entries in category display order.
func (r SpendingReport) Ordered() []CategoryStatus {
	out := make([]CategoryStatus, 0, len(r.Categories))
	for _, c := range allCategories {
		if s, ok := r.Categories[c]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Alerts returns the entries whose status is warning or over.
func (r SpendingReport) Alerts() []CategoryStatus {
	var out []CategoryStatus
	for _, s := range r.Ordered() {
		if s.Status != StatusGood {
			out = append(out, s)
		}
	}
	return out
}
