package expense

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	headerRowAddress = 1
	firstDataRow     = 2
)

// canonicalHeader is the fixed, order-sensitive schema of the expense sheet
var canonicalHeader = []string{"Date", "Amount", "Raw Text", "Category"}

// rowAPI is the minimal surface of the Sheets values API the ledger uses.
// Keeping it an interface lets tests drive the ledger against an in-memory
// sheet with real row-shift semantics.
type rowAPI interface {
	// getRange reads a cell range, e.g. "A1:D1" or "A2:D"
	getRange(ctx context.Context, rng string) ([][]interface{}, error)
	// updateRange overwrites a cell range in one bulk write
	updateRange(ctx context.Context, rng string, values [][]interface{}) error
	// appendRow appends one trailing row after the last non-empty row
	appendRow(ctx context.Context, row []interface{}) error
	// deleteRow removes the 1-based row; later rows shift up
	deleteRow(ctx context.Context, rowAddress int64) error
}

// SheetsConfig carries the explicit configuration for the Sheets-backed
// ledger; there is no ambient or process-global state
type SheetsConfig struct {
	// CredentialsFile is the path to the service account JSON key
	CredentialsFile string
	// SpreadsheetID identifies the spreadsheet document
	SpreadsheetID string
	// SheetName is the tab holding the expense rows
	SheetName string
}

// SheetsLedger implements the Ledger interface on a Google Sheets tab
type SheetsLedger struct {
	api rowAPI
}

// NewSheetsLedger creates a Ledger backed by the Google Sheets API using a
// pre-provisioned service account credential
func NewSheetsLedger(ctx context.Context, cfg SheetsConfig) (*SheetsLedger, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	sheetName := cfg.SheetName
	if sheetName == "" {
		sheetName = "Expenses"
	}

	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets client: %w", err)
	}

	return &SheetsLedger{
		api: &googleRowAPI{
			svc:           svc,
			spreadsheetID: cfg.SpreadsheetID,
			sheetName:     sheetName,
		},
	}, nil
}

// EnsureSchema reads row 1 and writes the canonical 4-column header when it
// is entirely empty. A header that is present but different is deliberately
// left untouched rather than reordered or overwritten; the mismatch is only
// logged.
func (l *SheetsLedger) EnsureSchema(ctx context.Context) error {
	rows, err := l.api.getRange(ctx, fmt.Sprintf("A%d:D%d", headerRowAddress, headerRowAddress))
	if err != nil {
		return classifyStoreError("ensure schema", err)
	}

	if headerEmpty(rows) {
		header := make([]interface{}, len(canonicalHeader))
		for i, h := range canonicalHeader {
			header[i] = h
		}
		if err := l.api.updateRange(ctx, fmt.Sprintf("A%d:D%d", headerRowAddress, headerRowAddress), [][]interface{}{header}); err != nil {
			return classifyStoreError("ensure schema", err)
		}
		return nil
	}

	if !headerCanonical(rows[0]) {
		slog.Warn("Ledger header differs from canonical schema; leaving it untouched",
			"have", rows[0],
			"want", canonicalHeader,
		)
	}
	return nil
}

// Append adds the expense as one trailing row: date, amount, raw text,
// category, in canonical column order
func (l *SheetsLedger) Append(ctx context.Context, e Expense) error {
	row := []interface{}{e.Date, e.Amount, e.RawText, string(e.Category)}
	if err := l.api.appendRow(ctx, row); err != nil {
		return classifyStoreError("append", err)
	}
	return nil
}

// ReadAll returns every data row as an Expense annotated with its current
// row address. Addresses are recomputed on every call, never cached.
func (l *SheetsLedger) ReadAll(ctx context.Context) ([]Expense, error) {
	rows, err := l.api.getRange(ctx, fmt.Sprintf("A%d:D", firstDataRow))
	if err != nil {
		return []Expense{}, classifyStoreError("read", err)
	}

	expenses := make([]Expense, 0, len(rows))
	for i, row := range rows {
		expenses = append(expenses, expenseFromRow(row, i+firstDataRow))
	}
	return expenses, nil
}

// Update overwrites all four columns of the addressed row in a single bulk
// write
func (l *SheetsLedger) Update(ctx context.Context, rowAddress int, e Expense) error {
	if rowAddress < firstDataRow {
		return fmt.Errorf("row address %d does not address a data row", rowAddress)
	}
	row := []interface{}{e.Date, e.Amount, e.RawText, string(e.Category)}
	if err := l.api.updateRange(ctx, fmt.Sprintf("A%d:D%d", rowAddress, rowAddress), [][]interface{}{row}); err != nil {
		return classifyStoreError("update", err)
	}
	return nil
}

// Delete removes exactly one row. The backing store shifts every later row
// up by one address unit itself; nothing is renumbered here.
func (l *SheetsLedger) Delete(ctx context.Context, rowAddress int) error {
	if rowAddress < firstDataRow {
		return fmt.Errorf("row address %d does not address a data row", rowAddress)
	}
	if err := l.api.deleteRow(ctx, int64(rowAddress)); err != nil {
		return classifyStoreError("delete", err)
	}
	return nil
}

// MonthlyTotal sums amounts over rows whose date parses to the given year
// and month. Unparsable dates are skipped, not errors. An empty or
// inaccessible store yields 0.0.
func (l *SheetsLedger) MonthlyTotal(ctx context.Context, year int, month time.Month) (float64, error) {
	expenses, err := l.ReadAll(ctx)
	if err != nil {
		return 0.0, err
	}

	var total float64
	for _, e := range expenses {
		date, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			continue
		}
		if date.Year() == year && date.Month() == month {
			total += e.Amount
		}
	}
	return total, nil
}

// expenseFromRow maps one sheet row onto an Expense, tolerating short rows
// and formatted cell values
func expenseFromRow(row []interface{}, rowAddress int) Expense {
	return Expense{
		RowAddress: rowAddress,
		Date:       cellString(row, 0),
		Amount:     cellFloat(row, 1),
		RawText:    cellString(row, 2),
		Category:   Category(cellString(row, 3)),
	}
}

func cellString(row []interface{}, i int) string {
	if i >= len(row) {
		return ""
	}
	switch v := row[i].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func cellFloat(row []interface{}, i int) float64 {
	if i >= len(row) {
		return 0.0
	}
	switch v := row[i].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(v), "$"), 64)
		if err != nil {
			return 0.0
		}
		return f
	default:
		return 0.0
	}
}

func headerEmpty(rows [][]interface{}) bool {
	if len(rows) == 0 {
		return true
	}
	for i := range rows[0] {
		if strings.TrimSpace(cellString(rows[0], i)) != "" {
			return false
		}
	}
	return true
}

func headerCanonical(row []interface{}) bool {
	if len(row) != len(canonicalHeader) {
		return false
	}
	for i, want := range canonicalHeader {
		if cellString(row, i) != want {
			return false
		}
	}
	return true
}

// googleRowAPI implements rowAPI against the real Sheets service
type googleRowAPI struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
}

func (g *googleRowAPI) ref(rng string) string {
	return fmt.Sprintf("%s!%s", g.sheetName, rng)
}

func (g *googleRowAPI) getRange(ctx context.Context, rng string) ([][]interface{}, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, g.ref(rng)).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (g *googleRowAPI) updateRange(ctx context.Context, rng string, values [][]interface{}) error {
	_, err := g.svc.Spreadsheets.Values.Update(g.spreadsheetID, g.ref(rng), &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}

func (g *googleRowAPI) appendRow(ctx context.Context, row []interface{}) error {
	_, err := g.svc.Spreadsheets.Values.Append(g.spreadsheetID, g.ref("A:D"), &sheets.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}

// deleteRow issues a DeleteDimension request, which is what makes the sheet
// itself shift later rows up
func (g *googleRowAPI) deleteRow(ctx context.Context, rowAddress int64) error {
	sheetID, err := g.sheetID(ctx)
	if err != nil {
		return err
	}

	_, err = g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: rowAddress - 1, // API is 0-based, half-open
					EndIndex:   rowAddress,
				},
			},
		}},
	}).Context(ctx).Do()
	return err
}

// sheetID resolves the numeric id of the configured tab. Looked up per call;
// nothing about the spreadsheet is cached between operations.
func (g *googleRowAPI) sheetID(ctx context.Context) (int64, error) {
	doc, err := g.svc.Spreadsheets.Get(g.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	for _, sh := range doc.Sheets {
		if sh.Properties != nil && sh.Properties.Title == g.sheetName {
			return sh.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", g.sheetName)
}
