package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"spendtrack/internal/core"
	ports "spendtrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Header is the first row written to a new yearly sheet.
var Header = []any{"ID", "Date", "Merchant", "Amount", "Payment Method", "Category", "Notes", "Recorded At"}

// Config selects the spreadsheet and credentials.
type Config struct {
	SpreadsheetID      string
	SheetName          string // base name; the year is prefixed per transaction
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
}

// Ensure interface conformance
var (
	_ ports.TransactionExporter = (*Client)(nil)
	_ ports.TransactionRemover  = (*Client)(nil)
)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetBase string) *Client {
	if strings.TrimSpace(sheetBase) == "" {
		sheetBase = "Transactions"
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetBase: strings.TrimSpace(sheetBase)}
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials, falling back to GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(cfg.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "component", "sheets")
	return service, nil
}

// SheetName returns the yearly sheet a transaction dated in year goes to.
func (c *Client) SheetName(year int) string {
	return yearPrefixedName(c.sheetBase, year)
}

// Export appends t as one row of the sheet for its year.
func (c *Client) Export(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheet := c.SheetName(t.Date.Year())
	vr := &gsheet.ValueRange{Values: [][]any{rowFor(t)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, sheet+"!A:H", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}

	ref := sheet
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Transaction exported", "component", "sheets", "id", t.ID, "ref", ref)
	return ref, nil
}

// Remove clears the row holding id in the sheet for year.
func (c *Client) Remove(ctx context.Context, id string, year int) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheet := c.SheetName(year)
	rng := sheet + "!A:A"
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	row := findRow(resp.Values, id)
	if row == 0 {
		return fmt.Errorf("%w: %s", ports.ErrRowNotFound, id)
	}
	target := fmt.Sprintf("%s!A%d:H%d", sheet, row, row)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, target, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", target, err)
	}
	slog.InfoContext(ctx, "Transaction row cleared", "component", "sheets", "id", id, "ref", target)
	return nil
}

func rowFor(t core.Transaction) []any {
	return []any{
		t.ID,
		t.Date.String(),
		t.Merchant,
		core.FormatAmount(t.Amount),
		string(t.PaymentMethod),
		string(t.Category),
		t.Notes,
		t.Timestamp.UTC().Format(time.RFC3339),
	}
}

// findRow returns the 1-based row whose first cell equals id, or 0.
func findRow(values [][]any, id string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
