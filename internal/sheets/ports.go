package sheets

import (
	"context"
	"errors"

	"spendtrack/internal/core"
)

// Ports for spreadsheet export adapters.
type (
	// TransactionExporter appends a stored transaction to a spreadsheet.
	TransactionExporter interface {
		Export(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// TransactionRemover removes a previously exported transaction. The
	// year names the yearly sheet the row was written to.
	TransactionRemover interface {
		Remove(ctx context.Context, id string, year int) error
	}
)

// ErrRowNotFound is returned when a transaction has no exported row.
var ErrRowNotFound = errors.New("transaction row not found")
