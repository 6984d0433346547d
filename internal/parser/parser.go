// Package parser extracts amount, merchant, payment method and category
// from free-form purchase text.
package parser

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spendtrack/internal/classifier"
	"spendtrack/internal/core"
)

// Parser turns free-form purchase text into a transaction-shaped record.
// Implementations return a best-effort result; whether it is good enough to
// store is decided by the caller via core.ParsedTransaction.Acceptable.
type Parser interface {
	Parse(ctx context.Context, text string) (core.ParsedTransaction, error)
}

// RulesParser extracts fields with regular expressions and keyword lookups.
type RulesParser struct {
	classifier classifier.Classifier
	now        func() time.Time
}

// Option configures a RulesParser.
type Option func(*RulesParser)

// WithClassifier overrides the category rule table.
func WithClassifier(c classifier.Classifier) Option {
	return func(p *RulesParser) { p.classifier = c }
}

// WithClock overrides the clock used for the default date.
func WithClock(now func() time.Time) Option {
	return func(p *RulesParser) { p.now = now }
}

func NewRulesParser(opts ...Option) *RulesParser {
	p := &RulesParser{
		classifier: classifier.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var (
	amountRe   = regexp.MustCompile(`\$?(\d+(?:\.\d{2})?)`)
	merchantRe = regexp.MustCompile(`(?i)\bat\s+([a-zA-Z\s]+?)(?:\s+with|\s+using|$)`)
)

// paymentPhrases is scanned in order; the first phrase present wins, so
// "cash app" must precede "cash". Methods are the title-cased phrase except
// "paypal", which keeps the PayPal brand casing of core.PayPal.
var paymentPhrases = []struct {
	phrase string
	method core.PaymentMethod
}{
	{"apple pay", core.ApplePay},
	{"zelle", core.Zelle},
	{"venmo", core.Venmo},
	{"cash app", core.CashApp},
	{"paypal", core.PayPal},
	{"credit card", core.CreditCard},
	{"debit card", core.DebitCard},
	{"cash", core.Cash},
}

var _ Parser = (*RulesParser)(nil)

// Parse implements Parser. It never fails.
func (p *RulesParser) Parse(_ context.Context, text string) (core.ParsedTransaction, error) {
	return p.ParseTranscript(text), nil
}

// ParseTranscript extracts amount, merchant, payment method and category
// from text. Each field is extracted independently; missing fields keep
// their defaults (zero amount, empty merchant, Cash).
func (p *RulesParser) ParseTranscript(text string) core.ParsedTransaction {
	merchant := extractMerchant(text)
	return core.ParsedTransaction{
		Date:          core.DateOf(p.now()),
		Merchant:      merchant,
		Amount:        extractAmount(text),
		PaymentMethod: extractPaymentMethod(text),
		Category:      p.classifier.Classify(merchant),
		Notes:         text,
	}
}

var std = NewRulesParser()

// ParseTranscript parses text with the default rules and the wall clock.
func ParseTranscript(text string) core.ParsedTransaction {
	return std.ParseTranscript(text)
}

func extractAmount(text string) decimal.Decimal {
	m := amountRe.FindStringSubmatch(text)
	if len(m) < 2 {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(m[1])
	if err != nil {
		return decimal.Zero
	}
	return d
}

func extractMerchant(text string) string {
	m := merchantRe.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func extractPaymentMethod(text string) core.PaymentMethod {
	lower := strings.ToLower(text)
	for _, pp := range paymentPhrases {
		if strings.Contains(lower, pp.phrase) {
			return pp.method
		}
	}
	return core.Cash
}

// NormalizePaymentMethod maps s to a known payment method when it names one
// (ignoring case), otherwise returns it title-cased. Empty input yields Cash.
func NormalizePaymentMethod(s string) core.PaymentMethod {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return core.Cash
	}
	for _, pm := range core.KnownPaymentMethods() {
		if strings.EqualFold(string(pm), s) {
			return pm
		}
	}
	return core.PaymentMethod(TitleCase(s))
}

// TitleCase capitalizes the first letter of each space separated word.
func TitleCase(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
