package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"spendtrack/internal/core"
	applog "spendtrack/internal/log"
	"spendtrack/internal/receipt"
	"spendtrack/internal/services"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.ready(r.Context()); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", "error", err)
		ServiceUnavailableError("Not ready").Write(w)
		return
	}
	NewJSONResponse().Data(map[string]string{"status": "ready"}).Write(w)
}

func (s *Server) handleCreateFromTranscript(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	req := transcriptRequest{Text: p.Get("text", "transcript")}
	if err := validate.Struct(req); err != nil {
		UnprocessableEntityError("Invalid transcript", validationDetails(err)...).Write(w)
		return
	}

	t, err := s.svc.AddFromTranscript(r.Context(), req.Text)
	if err != nil {
		s.writeCreateError(w, r, err)
		return
	}
	s.created(w, r, "transcript", t)
}

func (s *Server) handleCreateFromReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		BadRequestError("Expected a multipart form with an image").Write(w)
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		UnprocessableEntityError("Missing image", "image: required").Write(w)
		return
	}
	defer file.Close()

	img, err := io.ReadAll(file)
	if err != nil {
		BadRequestError("Could not read image").Write(w)
		return
	}

	t, err := s.svc.AddFromReceipt(r.Context(), img)
	if err != nil {
		s.writeCreateError(w, r, err)
		return
	}
	s.created(w, r, "receipt", t)
}

func (s *Server) handleCreateManual(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	req := manualRequest{
		Date:          p.Get("date"),
		Merchant:      p.Get("merchant"),
		Amount:        p.Get("amount"),
		PaymentMethod: p.Get("paymentMethod", "payment_method"),
		Notes:         p.Get("notes"),
	}
	if err := validate.Struct(req); err != nil {
		UnprocessableEntityError("Invalid transaction", validationDetails(err)...).Write(w)
		return
	}

	t, err := s.svc.AddManual(r.Context(), services.ManualEntry{
		Date:          req.Date,
		Merchant:      req.Merchant,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		s.writeCreateError(w, r, err)
		return
	}
	s.created(w, r, "manual", t)
}

func (s *Server) created(w http.ResponseWriter, r *http.Request, source string, t core.Transaction) {
	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogTransactionCreated(r.Context(), source, t)
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+t.ID).
		Data(toTransactionResponse(t)).
		Write(w)
}

func (s *Server) writeCreateError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrExtractionMiss):
		UnprocessableEntityError("Could not extract amount and merchant").Write(w)
	case errors.Is(err, receipt.ErrEmptyImage), errors.Is(err, receipt.ErrInvalidImage):
		BadRequestError("Image could not be decoded").Write(w)
	case errors.Is(err, core.ErrInvalidAmount):
		UnprocessableEntityError("Amount must be a positive number", "amount: positive").Write(w)
	case errors.Is(err, core.ErrEmptyMerchant):
		UnprocessableEntityError("Merchant is required", "merchant: notblank").Write(w)
	case errors.Is(err, core.ErrInvalidDate):
		UnprocessableEntityError("Date must be YYYY-MM-DD", "date: datetime").Write(w)
	case errors.Is(err, core.ErrInvalidCategory), errors.Is(err, core.ErrEmptyPayment):
		UnprocessableEntityError(err.Error()).Write(w)
	default:
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Failed to create transaction", err, applog.OpCreate, applog.ErrorTypeInternal)
		InternalServerError("Failed to save transaction").Write(w)
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		BadRequestError("Unknown category").Write(w)
		return
	}
	txs, err := s.svc.List(r.Context(), f)
	if err != nil {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Failed to list transactions", err, applog.OpList, applog.ErrorTypeInternal)
		InternalServerError("Failed to load transactions").Write(w)
		return
	}
	NewJSONResponse().Data(toTransactionList(txs)).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(chi.URLParam(r, "id"))
	if id == "" {
		BadRequestError("Missing transaction id").Write(w)
		return
	}
	if err := s.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			NotFoundError("Transaction not found").Write(w)
			return
		}
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Failed to delete transaction", err, applog.OpDelete, applog.ErrorTypeInternal)
		InternalServerError("Failed to delete transaction").Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		BadRequestError("Unknown category").Write(w)
		return
	}
	sum, err := s.svc.Summarize(r.Context(), f)
	if err != nil {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Failed to summarize transactions", err, applog.OpSummary, applog.ErrorTypeInternal)
		InternalServerError("Failed to load transactions").Write(w)
		return
	}
	NewJSONResponse().Data(summaryResponse{Count: sum.Count, Total: core.FormatAmount(sum.Total)}).Write(w)
}
