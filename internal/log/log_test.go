package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"spendtrack/internal/core"
)

func newBufferLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{Level: slog.LevelDebug, Component: component, Output: buf})
}

func TestLogger_WithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, ComponentApp).With("k", "v").WithComponent(ComponentHTTP)
	l.Info("hello")

	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=http") {
		t.Errorf("expected a single http component, got %q", out)
	}
	if !strings.Contains(out, "k=v") {
		t.Errorf("expected attributes to survive component change, got %q", out)
	}
	if l.Component() != ComponentHTTP {
		t.Errorf("Component() = %q, want http", l.Component())
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()).Component(); got != "unknown" {
		t.Errorf("FromContext() default component = %q, want unknown", got)
	}
	var buf bytes.Buffer
	l := newBufferLogger(&buf, ComponentBot)
	if got := FromContext(NewContext(context.Background(), l)); got != l {
		t.Errorf("FromContext() did not return the stored logger")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, ComponentHTTP)
	h := Middleware(logger)(RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).InfoContext(r.Context(), "inside")
	})))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get(RequestIDHeader) != "req-123" {
		t.Errorf("expected request ID to be echoed, got %q", rec.Header().Get(RequestIDHeader))
	}
	if !strings.Contains(buf.String(), "request_id=req-123") {
		t.Errorf("expected request ID in log, got %q", buf.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Errorf("expected a generated request ID")
	}
}

func TestAccessLogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, ComponentHTTP)
	h := Middleware(logger)(AccessLog(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/x?y=1", nil))

	out := buf.String()
	for _, want := range []string{"level=WARN", "status_code=404", "path=/api/x", "query=\"y=1\"", "success=false"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf, ComponentTransaction))
	sl.LogTransactionCreated(context.Background(), "transcript", core.Transaction{
		ID:            "01TEST",
		Merchant:      "Starbucks",
		Amount:        decimal.RequireFromString("25.5"),
		Category:      core.FoodAndDining,
		PaymentMethod: core.ApplePay,
		Receipt:       "data:image/png;base64,AAAA",
	})
	out := buf.String()
	for _, want := range []string{"transaction_id=01TEST", "amount=25.50", "source=transcript", "operation=create"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
	if strings.Contains(out, "base64") {
		t.Errorf("receipt reference must not be logged: %q", out)
	}

	buf.Reset()
	sl.LogError(context.Background(), "failed", errors.New("boom"), OpDelete, ErrorTypeInternal)
	if !strings.Contains(buf.String(), "error=boom") || !strings.Contains(buf.String(), "error_type=internal_error") {
		t.Errorf("unexpected error log: %q", buf.String())
	}
}
