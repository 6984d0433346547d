package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"$25.50", "25.5", true},
		{" 2.50 ", "2.5", true},
		{"0", "0", true},
		{"1.005", "1.005", true},
		{"-1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1e3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestAmountOrZero(t *testing.T) {
	if !AmountOrZero("nope").IsZero() {
		t.Fatalf("expected zero for invalid input")
	}
	if !AmountOrZero("3.10").Equal(decimal.RequireFromString("3.1")) {
		t.Fatalf("expected 3.10")
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"25.5":   "25.50",
		"40":     "40.00",
		"12.999": "13.00",
	}
	for in, want := range cases {
		if got := FormatAmount(decimal.RequireFromString(in)); got != want {
			t.Fatalf("%s expected %s, got %s", in, want, got)
		}
	}
	if got := FormatDollars(decimal.NewFromInt(-10)); got != "-$10.00" {
		t.Fatalf("unexpected dollars: %s", got)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Transaction{
		{Amount: decimal.RequireFromString("12.99")},
		{Amount: decimal.RequireFromString("7.01")},
	})
	if s.Count != 2 || !s.Total.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if empty := Summarize(nil); empty.Count != 0 || !empty.Total.IsZero() {
		t.Fatalf("unexpected empty summary: %+v", empty)
	}
}

func TestDefaultBudgets(t *testing.T) {
	b := DefaultBudgets()
	if len(b) != 9 {
		t.Fatalf("expected 9 defaults, got %d", len(b))
	}
	if !b[Groceries].Equal(decimal.NewFromInt(600)) || !b[Healthcare].Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected defaults: %v", b)
	}
	b[Groceries] = decimal.Zero
	if DefaultBudgets()[Groceries].IsZero() {
		t.Fatalf("defaults must not be shared")
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("expected valid map, got %v", err)
	}
	b[Other] = decimal.NewFromInt(-1)
	if err := b.Validate(); err == nil {
		t.Fatalf("expected error for negative budget")
	}
}
