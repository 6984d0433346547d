package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"

	"spendtrack/internal/classifier"
	"spendtrack/internal/core"
)

type fakeCompleter struct {
	content string
	err     error
	last    openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.last = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.content}}},
	}, nil
}

func clock() time.Time { return time.Date(2025, 2, 10, 8, 0, 0, 0, time.UTC) }

func TestParseUsesModelOutput(t *testing.T) {
	fc := &fakeCompleter{content: `{"merchant":"Trader Joe's","amount":31.2,"paymentMethod":"debit card","date":"2025-02-08"}`}
	p := NewWithClient(fc, "test-model", time.Second, classifier.Default(), clock)

	got, err := p.Parse(context.Background(), "thirty one twenty at trader joes on my debit card")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Merchant != "Trader Joe's" || !got.Amount.Equal(decimal.RequireFromString("31.2")) {
		t.Fatalf("unexpected fields: %+v", got)
	}
	if got.PaymentMethod != core.DebitCard || got.Category != core.Groceries {
		t.Fatalf("unexpected payment/category: %q %q", got.PaymentMethod, got.Category)
	}
	if got.Date.String() != "2025-02-08" {
		t.Fatalf("unexpected date: %s", got.Date)
	}
	if fc.last.Model != "test-model" || len(fc.last.Messages) != 2 {
		t.Fatalf("unexpected request: %+v", fc.last)
	}
}

func TestParseToleratesLooseOutput(t *testing.T) {
	fc := &fakeCompleter{content: "```json\n{\"merchant\":\"\",\"amount\":\"-4\",\"paymentMethod\":\"\",\"date\":\"soon\"}\n```"}
	p := NewWithClient(fc, "m", time.Second, classifier.Default(), clock)
	got, _ := p.Parse(context.Background(), "something")
	if !got.Amount.IsZero() || got.PaymentMethod != core.Cash || got.Category != core.Other {
		t.Fatalf("unexpected fields: %+v", got)
	}
	if got.Date.String() != "2025-02-10" || got.Acceptable() {
		t.Fatalf("expected clock date and extraction miss: %+v", got)
	}
}

func TestParseFallsBackToRules(t *testing.T) {
	cases := []*fakeCompleter{
		{err: errors.New("connection refused")},
		{content: ""},
		{content: "not json"},
	}
	for _, fc := range cases {
		p := NewWithClient(fc, "m", time.Second, classifier.Default(), clock)
		got, err := p.Parse(context.Background(), "$40 at Shell Gas using cash")
		if err != nil {
			t.Fatalf("parse should not fail: %v", err)
		}
		if got.Merchant != "Shell Gas" || got.Category != core.Transportation || !got.Amount.Equal(decimal.NewFromInt(40)) {
			t.Fatalf("expected rules fallback, got %+v", got)
		}
	}
}

func TestNewTalksToBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		content := `{"merchant":"Starbucks","amount":5.25,"paymentMethod":"Apple Pay","date":""}`
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	defer srv.Close()

	p := New(Config{BaseURL: srv.URL, APIKey: "k", Model: "m", Timeout: 5 * time.Second}, classifier.Default())
	got, err := p.Parse(context.Background(), "coffee")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Merchant != "Starbucks" || got.PaymentMethod != core.ApplePay || got.Category != core.FoodAndDining {
		t.Fatalf("unexpected result: %+v", got)
	}
}
