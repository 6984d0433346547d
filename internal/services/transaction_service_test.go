package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendtrack/internal/amqp"
	"spendtrack/internal/core"
	"spendtrack/internal/store"
	"spendtrack/internal/store/memory"
)

func fixedNow() time.Time { return time.Date(2025, 4, 15, 12, 0, 0, 0, time.UTC) }

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.TransactionEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, msg *amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, msg)
	return p.err
}

func newService(t *testing.T, opts ...Option) (*TransactionService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	opts = append([]Option{WithClock(fixedNow), WithPublisher(pub)}, opts...)
	return NewTransactionService(store.NewRepository(memory.New()), opts...), pub
}

func TestAddFromTranscript(t *testing.T) {
	ctx := context.Background()
	svc, pub := newService(t)

	tx, err := svc.AddFromTranscript(ctx, "Spent $25.50 at Starbucks with Apple Pay")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if tx.ID == "" || tx.Timestamp.IsZero() {
		t.Fatalf("expected identity fields, got %+v", tx)
	}
	if tx.Merchant != "Starbucks" || tx.Category != core.FoodAndDining || tx.PaymentMethod != core.ApplePay {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if tx.Date.String() != "2025-04-15" || tx.Notes != "Spent $25.50 at Starbucks with Apple Pay" {
		t.Fatalf("unexpected date/notes: %s %q", tx.Date, tx.Notes)
	}
	if len(pub.events) != 1 || pub.events[0].Type != amqp.EventTransactionCreated || pub.events[0].TransactionID != tx.ID {
		t.Fatalf("expected one created event, got %+v", pub.events)
	}
}

func TestAddFromTranscriptExtractionMiss(t *testing.T) {
	ctx := context.Background()
	svc, pub := newService(t)

	for _, text := range []string{"bought something", "at Target", "spent 20 dollars"} {
		if _, err := svc.AddFromTranscript(ctx, text); !errors.Is(err, ErrExtractionMiss) {
			t.Fatalf("%q expected ErrExtractionMiss, got %v", text, err)
		}
	}
	txs, _ := svc.List(ctx, Filter{})
	if len(txs) != 0 || len(pub.events) != 0 {
		t.Fatalf("nothing should be stored or published, got %d txs %d events", len(txs), len(pub.events))
	}
}

type fixedExtractor struct{ p core.ParsedTransaction }

func (f fixedExtractor) Extract(context.Context, []byte) (core.ParsedTransaction, error) {
	return f.p, nil
}

func TestAddFromReceipt(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, WithExtractor(fixedExtractor{p: core.ParsedTransaction{
		Date:          core.NewDate(2025, 4, 15),
		Merchant:      "Whole Foods",
		Amount:        decimal.RequireFromString("12.99"),
		PaymentMethod: core.CreditCard,
		Category:      core.Shopping,
		Notes:         "Auto-extracted from receipt",
	}}))

	tx, err := svc.AddFromReceipt(ctx, []byte("\x89PNG\r\n\x1a\nfake"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if tx.Category != core.Shopping {
		t.Fatalf("receipt record must be stored as extracted, got %q", tx.Category)
	}
	if !strings.HasPrefix(tx.Receipt, "data:image/png;base64,") {
		t.Fatalf("expected data url receipt, got %.30q", tx.Receipt)
	}
}

func TestAddFromReceiptRejectsNonImage(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.AddFromReceipt(context.Background(), []byte("hello")); err == nil {
		t.Fatalf("expected error for non-image bytes")
	}
}

func TestAddManual(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	tx, err := svc.AddManual(ctx, ManualEntry{
		Date: "2025-04-02", Merchant: " Uber ", Amount: "18.40", PaymentMethod: "venmo",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if tx.Merchant != "Uber" || tx.Category != core.Transportation || tx.PaymentMethod != core.Venmo || tx.Notes != "" {
		t.Fatalf("unexpected transaction: %+v", tx)
	}

	cases := []struct {
		name  string
		entry ManualEntry
		want  error
	}{
		{"unparseable amount", ManualEntry{Merchant: "Target", Amount: "twelve"}, core.ErrInvalidAmount},
		{"zero amount", ManualEntry{Merchant: "Target", Amount: "0"}, core.ErrInvalidAmount},
		{"negative amount", ManualEntry{Merchant: "Target", Amount: "-3"}, core.ErrInvalidAmount},
		{"empty merchant", ManualEntry{Merchant: "  ", Amount: "3"}, core.ErrEmptyMerchant},
		{"bad date", ManualEntry{Date: "04/02/2025", Merchant: "Target", Amount: "3"}, core.ErrInvalidDate},
	}
	for _, tc := range cases {
		if _, err := svc.AddManual(ctx, tc.entry); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestListOrderFilterAndSummary(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	entries := []ManualEntry{
		{Merchant: "Starbucks", Amount: "5", PaymentMethod: "Cash"},
		{Merchant: "Target", Amount: "20", PaymentMethod: "Credit Card"},
		{Merchant: "Amazon", Amount: "7.50", PaymentMethod: "Credit Card"},
	}
	for _, e := range entries {
		if _, err := svc.AddManual(ctx, e); err != nil {
			t.Fatalf("add %s: %v", e.Merchant, err)
		}
	}

	all, _ := svc.List(ctx, Filter{})
	if len(all) != 3 || all[0].Merchant != "Amazon" || all[2].Merchant != "Starbucks" {
		t.Fatalf("expected most recent first, got %+v", all)
	}

	shopping, _ := svc.List(ctx, Filter{Category: core.Shopping, PaymentMethod: "credit card"})
	if len(shopping) != 2 {
		t.Fatalf("expected 2 shopping credit card entries, got %d", len(shopping))
	}

	sum, err := svc.Summarize(ctx, Filter{PaymentMethod: core.CreditCard})
	if err != nil || sum.Count != 2 || !sum.Total.Equal(decimal.RequireFromString("27.5")) {
		t.Fatalf("unexpected summary %+v (err=%v)", sum, err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, pub := newService(t)
	tx, err := svc.AddManual(ctx, ManualEntry{Merchant: "Lyft", Amount: "9"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Delete(ctx, tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, tx.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	txs, _ := svc.List(ctx, Filter{})
	if len(txs) != 0 {
		t.Fatalf("expected empty list, got %d", len(txs))
	}
	last := pub.events[len(pub.events)-1]
	if last.Type != amqp.EventTransactionDeleted || last.TransactionID != tx.ID {
		t.Fatalf("expected deleted event, got %+v", last)
	}
}

func TestBudgetsAndReport(t *testing.T) {
	ctx := context.Background()
	svc, pub := newService(t)

	b, err := svc.Budgets(ctx)
	if err != nil || len(b) != 9 {
		t.Fatalf("expected default budgets, got %v (err=%v)", b, err)
	}

	if _, err := svc.ReplaceBudgets(ctx, core.BudgetMap{core.Other: decimal.NewFromInt(-5)}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	saved, err := svc.ReplaceBudgets(ctx, core.BudgetMap{core.Groceries: decimal.NewFromInt(100)})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	stored, err := svc.Budgets(ctx)
	if err != nil {
		t.Fatalf("budgets: %v", err)
	}
	for _, m := range []core.BudgetMap{saved, stored} {
		if len(m) != len(core.AllCategories()) {
			t.Fatalf("expected every category stored, got %v", m)
		}
		for _, c := range core.AllCategories() {
			want := decimal.Zero
			if c == core.Groceries {
				want = decimal.NewFromInt(100)
			}
			v, ok := m[c]
			if !ok || !v.Equal(want) {
				t.Fatalf("%s: expected %s, got %s (present=%v)", c, want, v, ok)
			}
		}
	}
	if pub.events[len(pub.events)-1].Type != amqp.EventBudgetsUpdated {
		t.Fatalf("expected budgets event")
	}

	for _, amt := range []string{"40", "70"} {
		if _, err := svc.AddManual(ctx, ManualEntry{Merchant: "Safeway", Amount: amt}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if _, err := svc.AddManual(ctx, ManualEntry{Date: "2025-03-30", Merchant: "Safeway", Amount: "500"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	r, err := svc.CurrentReport(ctx)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(r.Categories) != 1 {
		t.Fatalf("expected only Groceries, got %v", r.Categories)
	}
	g := r.Categories[core.Groceries]
	if !g.Spent.Equal(decimal.NewFromInt(110)) || g.Status != core.StatusOver || !g.Remaining.Equal(decimal.NewFromInt(-10)) {
		t.Fatalf("unexpected groceries status: %+v", g)
	}
}

func TestConcurrentAddsAreNotLost(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.AddManual(ctx, ManualEntry{Merchant: fmt.Sprintf("Shop %d", i), Amount: "1"}); err != nil {
				t.Errorf("add %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	txs, _ := svc.List(ctx, Filter{})
	if len(txs) != n {
		t.Fatalf("expected %d transactions, got %d", n, len(txs))
	}
	seen := map[string]bool{}
	for _, tx := range txs {
		if seen[tx.ID] {
			t.Fatalf("duplicate id %s", tx.ID)
		}
		seen[tx.ID] = true
	}
}

func TestPublishFailureDoesNotFailAdd(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewTransactionService(store.NewRepository(memory.New()), WithClock(fixedNow), WithPublisher(pub))
	if _, err := svc.AddManual(context.Background(), ManualEntry{Merchant: "Target", Amount: "3"}); err != nil {
		t.Fatalf("add should succeed, got %v", err)
	}
}
