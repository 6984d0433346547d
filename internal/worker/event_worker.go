package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spendtrack/internal/amqp"
	"spendtrack/internal/core"
	"spendtrack/internal/sheets"
)

// ReportSource computes the spending report for the month containing ref.
type ReportSource interface {
	Report(ctx context.Context, ref time.Time) (core.SpendingReport, error)
}

// EventWorker reacts to transaction events: it mirrors transactions to a
// spreadsheet when one is configured and re-evaluates the affected month's
// budgets, logging every category at warning or over.
type EventWorker struct {
	reports  ReportSource
	exporter sheets.TransactionExporter
	remover  sheets.TransactionRemover
}

// NewEventWorker creates a worker. exporter and remover may be nil.
func NewEventWorker(reports ReportSource, exporter sheets.TransactionExporter, remover sheets.TransactionRemover) *EventWorker {
	return &EventWorker{reports: reports, exporter: exporter, remover: remover}
}

// Handle processes one event. A returned error requeues it.
func (w *EventWorker) Handle(ctx context.Context, msg *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing event",
		"component", "worker",
		"type", msg.Type,
		"transaction_id", msg.TransactionID,
		"year", msg.Year,
		"month", msg.Month)

	switch msg.Type {
	case amqp.EventTransactionCreated:
		if err := w.export(ctx, msg); err != nil {
			return err
		}
	case amqp.EventTransactionDeleted:
		if err := w.remove(ctx, msg); err != nil {
			return err
		}
	case amqp.EventBudgetsUpdated:
	default:
		return fmt.Errorf("unsupported event type %q", msg.Type)
	}

	_, err := w.CheckBudgets(ctx, msg.Year, msg.Month)
	return err
}

func (w *EventWorker) export(ctx context.Context, msg *amqp.TransactionEvent) error {
	if w.exporter == nil {
		return nil
	}
	if _, err := w.exporter.Export(ctx, *msg.Transaction); err != nil {
		return fmt.Errorf("export transaction %s: %w", msg.TransactionID, err)
	}
	return nil
}

func (w *EventWorker) remove(ctx context.Context, msg *amqp.TransactionEvent) error {
	if w.remover == nil {
		return nil
	}
	err := w.remover.Remove(ctx, msg.TransactionID, msg.Year)
	if errors.Is(err, sheets.ErrRowNotFound) {
		slog.WarnContext(ctx, "Deleted transaction was never exported",
			"component", "worker", "transaction_id", msg.TransactionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("remove transaction %s: %w", msg.TransactionID, err)
	}
	return nil
}

// CheckBudgets evaluates the given month and logs its alerts.
func (w *EventWorker) CheckBudgets(ctx context.Context, year, month int) ([]core.CategoryStatus, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month: %d", month)
	}
	ref := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	report, err := w.reports.Report(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}
	alerts := report.Alerts()
	for _, a := range alerts {
		level := slog.LevelWarn
		if a.Status == core.StatusOver {
			level = slog.LevelError
		}
		slog.Log(ctx, level, "Budget alert",
			"component", "worker",
			"year", year,
			"month", month,
			"category", a.Category,
			"status", a.Status,
			"spent", core.FormatAmount(a.Spent),
			"budget", core.FormatAmount(a.Budget),
			"percentage", fmt.Sprintf("%.1f", a.Percentage))
	}
	return alerts, nil
}
