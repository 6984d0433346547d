// Package memory is an in-process spreadsheet with one sheet per year. It
// stands in for Google Sheets in tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"spendtrack/internal/core"
	"spendtrack/internal/sheets"
)

type Sheet struct {
	mu   sync.Mutex
	rows map[int][]core.Transaction
}

func New() *Sheet {
	return &Sheet{rows: make(map[int][]core.Transaction)}
}

var (
	_ sheets.TransactionExporter = (*Sheet)(nil)
	_ sheets.TransactionRemover  = (*Sheet)(nil)
)

// Export appends t to the sheet for its year and returns a synthetic row
// reference. The receipt image is not copied.
func (s *Sheet) Export(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	t.Receipt = ""
	year := t.Date.Year()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[year] = append(s.rows[year], t)
	return fmt.Sprintf("mem:%d:%d", year, len(s.rows[year])+1), nil
}

// Remove deletes the row for id from the given year's sheet.
func (s *Sheet) Remove(_ context.Context, id string, year int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.rows[year]
	for i, t := range rows {
		if t.ID == id {
			s.rows[year] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", sheets.ErrRowNotFound, id)
}

// Rows returns a copy of the rows exported for year.
func (s *Sheet) Rows(year int) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.rows[year]...)
}
