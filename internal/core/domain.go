package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	FoodAndDining     Category = "Food & Dining"
	Groceries         Category = "Groceries"
	Shopping          Category = "Shopping"
	Transportation    Category = "Transportation"
	Entertainment     Category = "Entertainment"
	BillsAndUtilities Category = "Bills & Utilities"
	Healthcare        Category = "Healthcare"
	Personal          Category = "Personal"
	Other             Category = "Other"
)

const (
	Cash       PaymentMethod = "Cash"
	CreditCard PaymentMethod = "Credit Card"
	DebitCard  PaymentMethod = "Debit Card"
	ApplePay   PaymentMethod = "Apple Pay"
	Zelle      PaymentMethod = "Zelle"
	Venmo      PaymentMethod = "Venmo"
	CashApp    PaymentMethod = "Cash App"
	PayPal     PaymentMethod = "PayPal"
)

// DateLayout is the calendar date format used for transaction dates.
const DateLayout = "2006-01-02"

type (
	Category string

	PaymentMethod string

	Date struct {
		time.Time
	}

	Transaction struct {
		ID            string          `json:"id"`
		Date          Date            `json:"date"`
		Merchant      string          `json:"merchant"`
		Amount        decimal.Decimal `json:"amount"`
		PaymentMethod PaymentMethod   `json:"paymentMethod"`
		Category      Category        `json:"category"`
		Notes         string          `json:"notes,omitempty"`
		Receipt       string          `json:"receipt,omitempty"`
		Timestamp     time.Time       `json:"timestamp"`
	}

	// ParsedTransaction is a transaction-shaped record produced by a parser or
	// receipt extractor, before it is given an identity.
	ParsedTransaction struct {
		Date          Date            `json:"date"`
		Merchant      string          `json:"merchant"`
		Amount        decimal.Decimal `json:"amount"`
		PaymentMethod PaymentMethod   `json:"paymentMethod"`
		Category      Category        `json:"category"`
		Notes         string          `json:"notes,omitempty"`
	}
)

var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyMerchant   = errors.New("empty merchant")
	ErrEmptyPayment    = errors.New("empty payment method")
	ErrInvalidDate     = errors.New("invalid date")
)

var allCategories = []Category{
	FoodAndDining,
	Groceries,
	Shopping,
	Transportation,
	Entertainment,
	BillsAndUtilities,
	Healthcare,
	Personal,
	Other,
}

var knownPaymentMethods = []PaymentMethod{
	Cash, CreditCard, DebitCard, ApplePay, Zelle, Venmo, CashApp, PayPal,
}

// AllCategories returns the closed category set in display order.
func AllCategories() []Category {
	return append([]Category(nil), allCategories...)
}

// IsValid reports whether c belongs to the closed category set.
func (c Category) IsValid() bool {
	switch c {
	case FoodAndDining, Groceries, Shopping, Transportation, Entertainment,
		BillsAndUtilities, Healthcare, Personal, Other:
		return true
	default:
		return false
	}
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory matches s against the closed set, ignoring case and
// surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range allCategories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// KnownPaymentMethods returns the payment methods recognised by the parser.
func KnownPaymentMethods() []PaymentMethod {
	return append([]PaymentMethod(nil), knownPaymentMethods...)
}

// IsKnown reports whether p is one of the recognised payment methods.
// Manual entries may carry other values.
func (p PaymentMethod) IsKnown() bool {
	for _, k := range knownPaymentMethods {
		if p == k {
			return true
		}
	}
	return false
}

func (p PaymentMethod) String() string {
	return string(p)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// SameMonth reports whether d falls in the same calendar month and year as t.
func (d Date) SameMonth(t time.Time) bool {
	return d.Year() == t.Year() && d.Month() == t.Month()
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(strings.TrimSpace(string(b))) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		*d = Date{}
		return nil
	}
	return d.UnmarshalText([]byte(s))
}

// Acceptable reports whether the record carries enough information to be
// stored: a positive amount and a merchant.
func (p ParsedTransaction) Acceptable() bool {
	return p.Amount.IsPositive() && strings.TrimSpace(p.Merchant) != ""
}

func (p ParsedTransaction) Validate() error {
	if p.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(p.Merchant) == "" {
		return ErrEmptyMerchant
	}
	if p.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(string(p.PaymentMethod)) == "" {
		return ErrEmptyPayment
	}
	if !p.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, p.Category)
	}
	return nil
}

func (t Transaction) Validate() error {
	return t.Parsed().Validate()
}

// Parsed returns the transaction without its identity fields.
func (t Transaction) Parsed() ParsedTransaction {
	return ParsedTransaction{
		Date:          t.Date,
		Merchant:      t.Merchant,
		Amount:        t.Amount,
		PaymentMethod: t.PaymentMethod,
		Category:      t.Category,
		Notes:         t.Notes,
	}
}
