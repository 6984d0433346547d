package core

import "github.com/shopspring/decimal"

// Summary is a compact count/total view of a list of transactions.
type Summary struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// Summarize totals the given transactions.
func Summarize(txs []Transaction) Summary {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return Summary{Count: len(txs), Total: total}
}
