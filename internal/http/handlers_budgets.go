package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"spendtrack/internal/core"
	applog "spendtrack/internal/log"
)

func (s *Server) handleGetBudgets(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.Budgets(r.Context())
	if err != nil {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Failed to load budgets", err, applog.OpBudgets, applog.ErrorTypeInternal)
		InternalServerError("Failed to load budgets").Write(w)
		return
	}
	NewJSONResponse().Data(toBudgetsResponse(b)).Write(w)
}

// handlePutBudgets replaces the whole budget map; categories missing from
// the body are stored as zero. The body is either
// {"budgets": {...}} or the bare category to amount object; amounts may be
// JSON numbers or numeric strings.
func (s *Server) handlePutBudgets(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	raw, err := decodeBudgets(body)
	if err != nil {
		BadRequestError("Budgets must be an object of category to amount").Write(w)
		return
	}

	req := budgetsRequest{Categories: make([]string, 0, len(raw))}
	for c := range raw {
		req.Categories = append(req.Categories, c)
	}
	if err := validate.Struct(req); err != nil {
		UnprocessableEntityError("Invalid budgets", validationDetails(err)...).Write(w)
		return
	}

	b := make(core.BudgetMap, len(raw))
	for name, amount := range raw {
		c, err := core.ParseCategory(name)
		if err != nil {
			UnprocessableEntityError("Unknown category", name).Write(w)
			return
		}
		b[c] = amount
	}

	saved, err := s.svc.ReplaceBudgets(r.Context(), b)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidAmount):
			UnprocessableEntityError("Budgets must not be negative").Write(w)
		case errors.Is(err, core.ErrInvalidCategory):
			UnprocessableEntityError("Unknown category").Write(w)
		default:
			applog.NewStructuredLogger(applog.FromContext(r.Context())).
				LogError(r.Context(), "Failed to save budgets", err, applog.OpBudgets, applog.ErrorTypeInternal)
			InternalServerError("Failed to save budgets").Write(w)
		}
		return
	}
	NewJSONResponse().Data(toBudgetsResponse(saved)).Write(w)
}

func decodeBudgets(body []byte) (map[string]decimal.Decimal, error) {
	var wrapped struct {
		Budgets map[string]decimal.Decimal `json:"budgets"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Budgets != nil {
		return wrapped.Budgets, nil
	}
	var bare map[string]decimal.Decimal
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, err
	}
	return bare, nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	params := ParseMonthParams(r.URL.Query(), s.now())
	report, err := s.svc.Report(r.Context(), params.Time())
	if err != nil {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Failed to build report", err, applog.OpReport, applog.ErrorTypeInternal)
		InternalServerError("Failed to build report").Write(w)
		return
	}
	NewJSONResponse().Data(toReportResponse(report)).Write(w)
}
