package http

import (
	"time"

	"spendtrack/internal/core"
)

type transactionResponse struct {
	ID            string    `json:"id"`
	Date          string    `json:"date"`
	Merchant      string    `json:"merchant"`
	Amount        string    `json:"amount"`
	PaymentMethod string    `json:"paymentMethod"`
	Category      string    `json:"category"`
	Notes         string    `json:"notes,omitempty"`
	HasReceipt    bool      `json:"hasReceipt"`
	Timestamp     time.Time `json:"timestamp"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:            t.ID,
		Date:          t.Date.String(),
		Merchant:      t.Merchant,
		Amount:        core.FormatAmount(t.Amount),
		PaymentMethod: t.PaymentMethod.String(),
		Category:      t.Category.String(),
		Notes:         t.Notes,
		HasReceipt:    t.Receipt != "",
		Timestamp:     t.Timestamp,
	}
}

type transactionListResponse struct {
	Transactions []transactionResponse `json:"transactions"`
	Count        int                   `json:"count"`
}

func toTransactionList(txs []core.Transaction) transactionListResponse {
	out := transactionListResponse{Transactions: make([]transactionResponse, 0, len(txs)), Count: len(txs)}
	for _, t := range txs {
		out.Transactions = append(out.Transactions, toTransactionResponse(t))
	}
	return out
}

type summaryResponse struct {
	Count int    `json:"count"`
	Total string `json:"total"`
}

type categoryStatusResponse struct {
	Category   string  `json:"category"`
	Spent      string  `json:"spent"`
	Budget     string  `json:"budget"`
	Remaining  string  `json:"remaining"`
	Percentage float64 `json:"percentage"`
	Status     string  `json:"status"`
}

func toCategoryStatus(s core.CategoryStatus) categoryStatusResponse {
	return categoryStatusResponse{
		Category:   s.Category.String(),
		Spent:      core.FormatAmount(s.Spent),
		Budget:     core.FormatAmount(s.Budget),
		Remaining:  core.FormatAmount(s.Remaining),
		Percentage: s.Percentage,
		Status:     string(s.Status),
	}
}

type reportResponse struct {
	Year       int                      `json:"year"`
	Month      int                      `json:"month"`
	Categories []categoryStatusResponse `json:"categories"`
	Alerts     []categoryStatusResponse `json:"alerts"`
}

func toReportResponse(r core.SpendingReport) reportResponse {
	out := reportResponse{
		Year:       r.Year,
		Month:      r.Month,
		Categories: []categoryStatusResponse{},
		Alerts:     []categoryStatusResponse{},
	}
	for _, s := range r.Ordered() {
		out.Categories = append(out.Categories, toCategoryStatus(s))
	}
	for _, s := range r.Alerts() {
		out.Alerts = append(out.Alerts, toCategoryStatus(s))
	}
	return out
}

type budgetsResponse struct {
	Budgets map[string]string `json:"budgets"`
}

func toBudgetsResponse(b core.BudgetMap) budgetsResponse {
	out := budgetsResponse{Budgets: make(map[string]string, len(b))}
	for c, v := range b {
		out.Budgets[c.String()] = core.FormatAmount(v)
	}
	return out
}
