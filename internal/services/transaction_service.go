package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"spendtrack/internal/amqp"
	"spendtrack/internal/budget"
	"spendtrack/internal/classifier"
	"spendtrack/internal/core"
	"spendtrack/internal/parser"
	"spendtrack/internal/receipt"
)

var (
	// ErrExtractionMiss means the input did not yield both a positive
	// amount and a merchant. Nothing is stored.
	ErrExtractionMiss = errors.New("could not extract amount and merchant")
	ErrNotFound       = errors.New("transaction not found")
)

// Repository is the persistence the service needs.
type Repository interface {
	LoadTransactions(ctx context.Context) ([]core.Transaction, error)
	SaveTransactions(ctx context.Context, txs []core.Transaction) error
	LoadBudgets(ctx context.Context) (core.BudgetMap, error)
	SaveBudgets(ctx context.Context, b core.BudgetMap) error
}

// Publisher receives an event after every committed change.
type Publisher interface {
	Publish(ctx context.Context, msg *amqp.TransactionEvent) error
}

// ManualEntry is the raw manual form. Amount is the unparsed user input.
type ManualEntry struct {
	Date          string
	Merchant      string
	Amount        string
	PaymentMethod string
	Notes         string
}

// Filter narrows List and Summarize. Empty fields match everything.
type Filter struct {
	PaymentMethod core.PaymentMethod
	Category      core.Category
}

func (f Filter) matches(t core.Transaction) bool {
	if f.PaymentMethod != "" && !strings.EqualFold(string(t.PaymentMethod), string(f.PaymentMethod)) {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	return true
}

// TransactionService owns the transaction collection and the budget map.
// All mutations are serialized so concurrent adds never lose entries.
type TransactionService struct {
	repo       Repository
	parser     parser.Parser
	extractor  receipt.Extractor
	classifier classifier.Classifier
	publisher  Publisher
	now        func() time.Time

	mu sync.Mutex
}

// Option configures a TransactionService.
type Option func(*TransactionService)

func WithParser(p parser.Parser) Option {
	return func(s *TransactionService) { s.parser = p }
}

func WithExtractor(x receipt.Extractor) Option {
	return func(s *TransactionService) { s.extractor = x }
}

func WithClassifier(c classifier.Classifier) Option {
	return func(s *TransactionService) { s.classifier = c }
}

// WithPublisher enables event publishing; a nil publisher disables it.
func WithPublisher(p Publisher) Option {
	return func(s *TransactionService) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *TransactionService) { s.now = now }
}

func NewTransactionService(repo Repository, opts ...Option) *TransactionService {
	s := &TransactionService{
		repo:       repo,
		classifier: classifier.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.parser == nil {
		s.parser = parser.NewRulesParser(parser.WithClassifier(s.classifier), parser.WithClock(s.now))
	}
	if s.extractor == nil {
		s.extractor = receipt.NewStubExtractor(s.now)
	}
	return s
}

// AddFromTranscript parses text and stores the result when it carries a
// positive amount and a merchant; otherwise it returns ErrExtractionMiss.
func (s *TransactionService) AddFromTranscript(ctx context.Context, text string) (core.Transaction, error) {
	p, err := s.parser.Parse(ctx, text)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transcript: %w", err)
	}
	if !p.Acceptable() {
		slog.InfoContext(ctx, "Transcript rejected",
			"component", "transaction", "operation", "parse",
			"merchant", p.Merchant, "amount", p.Amount.String())
		return core.Transaction{}, ErrExtractionMiss
	}
	return s.add(ctx, p, "")
}

// AddFromReceipt extracts a record from img and stores it with the image
// attached as a data URL.
func (s *TransactionService) AddFromReceipt(ctx context.Context, img []byte) (core.Transaction, error) {
	p, err := s.extractor.Extract(ctx, img)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("extract receipt: %w", err)
	}
	if !p.Acceptable() {
		return core.Transaction{}, ErrExtractionMiss
	}
	return s.add(ctx, p, receipt.DataURL(img))
}

// AddManual stores a form entry. An unparseable amount counts as zero and
// zero amounts are rejected with core.ErrInvalidAmount. The category is
// derived from the merchant.
func (s *TransactionService) AddManual(ctx context.Context, e ManualEntry) (core.Transaction, error) {
	date := core.DateOf(s.now())
	if strings.TrimSpace(e.Date) != "" {
		d, err := core.ParseDate(e.Date)
		if err != nil {
			return core.Transaction{}, err
		}
		date = d
	}
	merchant := strings.TrimSpace(e.Merchant)
	if merchant == "" {
		return core.Transaction{}, core.ErrEmptyMerchant
	}
	amount := core.AmountOrZero(e.Amount)
	if !amount.IsPositive() {
		return core.Transaction{}, core.ErrInvalidAmount
	}
	return s.add(ctx, core.ParsedTransaction{
		Date:          date,
		Merchant:      merchant,
		Amount:        amount,
		PaymentMethod: parser.NormalizePaymentMethod(e.PaymentMethod),
		Category:      s.classifier.Classify(merchant),
		Notes:         strings.TrimSpace(e.Notes),
	}, "")
}

func (s *TransactionService) add(ctx context.Context, p core.ParsedTransaction, receiptRef string) (core.Transaction, error) {
	if err := p.Validate(); err != nil {
		return core.Transaction{}, err
	}
	now := s.now()
	t := core.Transaction{
		ID:            ulid.Make().String(),
		Date:          p.Date,
		Merchant:      p.Merchant,
		Amount:        p.Amount,
		PaymentMethod: p.PaymentMethod,
		Category:      p.Category,
		Notes:         p.Notes,
		Receipt:       receiptRef,
		Timestamp:     now,
	}

	s.mu.Lock()
	txs, err := s.repo.LoadTransactions(ctx)
	if err == nil {
		// Most recent first.
		txs = append([]core.Transaction{t}, txs...)
		err = s.repo.SaveTransactions(ctx, txs)
	}
	s.mu.Unlock()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("store transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"component", "transaction", "operation", "create",
		"id", t.ID, "merchant", t.Merchant, "amount", core.FormatAmount(t.Amount),
		"category", t.Category, "payment_method", t.PaymentMethod)
	s.publish(ctx, amqp.NewTransactionCreated(t))
	return t, nil
}

// Delete removes the transaction with the given ID.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	txs, err := s.repo.LoadTransactions(ctx)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("load transactions: %w", err)
	}
	idx := -1
	for i, t := range txs {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	removed := txs[idx]
	txs = append(txs[:idx], txs[idx+1:]...)
	err = s.repo.SaveTransactions(ctx, txs)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "component", "transaction", "operation", "delete", "id", id)
	s.publish(ctx, amqp.NewTransactionDeleted(removed))
	return nil
}

// List returns the transactions matching f, most recent first.
func (s *TransactionService) List(ctx context.Context, f Filter) ([]core.Transaction, error) {
	txs, err := s.repo.LoadTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if f.matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Summarize counts and totals the transactions matching f.
func (s *TransactionService) Summarize(ctx context.Context, f Filter) (core.Summary, error) {
	txs, err := s.List(ctx, f)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(txs), nil
}

func (s *TransactionService) Budgets(ctx context.Context) (core.BudgetMap, error) {
	b, err := s.repo.LoadBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	return b, nil
}

// ReplaceBudgets stores b as the whole budget map. Every category is
// written; categories left out of b are stored with a zero budget and so
// drop out of reports.
func (s *TransactionService) ReplaceBudgets(ctx context.Context, b core.BudgetMap) (core.BudgetMap, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	next := make(core.BudgetMap, len(core.AllCategories()))
	for _, c := range core.AllCategories() {
		next[c] = decimal.Zero
	}
	for c, v := range b {
		next[c] = v
	}
	s.mu.Lock()
	err := s.repo.SaveBudgets(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("save budgets: %w", err)
	}
	slog.InfoContext(ctx, "Budgets updated", "component", "transaction", "operation", "update", "categories", len(next))
	s.publish(ctx, amqp.NewBudgetsUpdated(s.now()))
	return next, nil
}

// Report evaluates the month containing ref against the stored budgets.
func (s *TransactionService) Report(ctx context.Context, ref time.Time) (core.SpendingReport, error) {
	txs, err := s.repo.LoadTransactions(ctx)
	if err != nil {
		return core.SpendingReport{}, fmt.Errorf("load transactions: %w", err)
	}
	b, err := s.repo.LoadBudgets(ctx)
	if err != nil {
		return core.SpendingReport{}, fmt.Errorf("load budgets: %w", err)
	}
	return budget.BuildReport(txs, b, ref), nil
}

// CurrentReport is Report for the current month.
func (s *TransactionService) CurrentReport(ctx context.Context) (core.SpendingReport, error) {
	return s.Report(ctx, s.now())
}

func (s *TransactionService) publish(ctx context.Context, msg *amqp.TransactionEvent) {
	if s.publisher == nil {
		return
	}
	// Publishing failures never fail the request.
	if err := s.publisher.Publish(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish event",
			"component", "transaction", "type", msg.Type, "transaction_id", msg.TransactionID, "error", err)
	}
}
