// Package store persists the transaction list and the budget map on top of
// a key-value backend. Unreadable stored state never surfaces as an error:
// it is logged and replaced with an empty list or the default budgets.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"spendtrack/internal/core"
)

const (
	KeyTransactions = "transactions"
	KeyBudgets      = "budgets"
)

// Repository reads and writes typed values through a KV backend.
type Repository struct {
	kv KV
}

func NewRepository(kv KV) *Repository {
	return &Repository{kv: kv}
}

// Ping checks the backend when it supports health checks.
func (r *Repository) Ping(ctx context.Context) error {
	if p, ok := r.kv.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// LoadTransactions returns the stored list, most recent first. Entries that
// fail validation are dropped.
func (r *Repository) LoadTransactions(ctx context.Context) ([]core.Transaction, error) {
	raw, found, err := r.kv.Get(ctx, KeyTransactions)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	if !found {
		return []core.Transaction{}, nil
	}
	var txs []core.Transaction
	if err := json.Unmarshal(raw, &txs); err != nil {
		slog.WarnContext(ctx, "Stored transactions are unreadable, starting empty",
			"component", "storage", "operation", "read", "key", KeyTransactions, "error", err)
		return []core.Transaction{}, nil
	}
	out := txs[:0]
	for _, t := range txs {
		if err := t.Validate(); err != nil {
			slog.WarnContext(ctx, "Dropping invalid stored transaction",
				"component", "storage", "operation", "read", "id", t.ID, "error", err)
			continue
		}
		out = append(out, t)
	}
	if out == nil {
		out = []core.Transaction{}
	}
	return out, nil
}

func (r *Repository) SaveTransactions(ctx context.Context, txs []core.Transaction) error {
	if txs == nil {
		txs = []core.Transaction{}
	}
	raw, err := json.Marshal(txs)
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}
	if err := r.kv.Put(ctx, KeyTransactions, raw); err != nil {
		return fmt.Errorf("save transactions: %w", err)
	}
	return nil
}

// LoadBudgets returns the stored budget map, or DefaultBudgets when none is
// stored or the stored value is unreadable.
func (r *Repository) LoadBudgets(ctx context.Context) (core.BudgetMap, error) {
	raw, found, err := r.kv.Get(ctx, KeyBudgets)
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	if !found {
		return core.DefaultBudgets(), nil
	}
	var b core.BudgetMap
	if err := json.Unmarshal(raw, &b); err != nil || b == nil {
		slog.WarnContext(ctx, "Stored budgets are unreadable, using defaults",
			"component", "storage", "operation", "read", "key", KeyBudgets, "error", err)
		return core.DefaultBudgets(), nil
	}
	if err := b.Validate(); err != nil {
		slog.WarnContext(ctx, "Stored budgets are invalid, using defaults",
			"component", "storage", "operation", "read", "key", KeyBudgets, "error", err)
		return core.DefaultBudgets(), nil
	}
	return b, nil
}

func (r *Repository) SaveBudgets(ctx context.Context, b core.BudgetMap) error {
	if err := b.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode budgets: %w", err)
	}
	if err := r.kv.Put(ctx, KeyBudgets, raw); err != nil {
		return fmt.Errorf("save budgets: %w", err)
	}
	return nil
}
