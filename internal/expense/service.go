package expense

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zombor/snapbudget/internal/scanning"
)

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Extraction is the reviewable result of running a receipt through the
// pipeline. It is never persisted directly: an expense is only created
// through the explicit confirm-and-save step.
type Extraction struct {
	RawText string  `json:"raw_text"`
	Amount  float64 `json:"amount"`
}

// Service handles expense operations
type Service struct {
	ledger     Ledger
	recognizer scanning.Recognizer
	timeSource TimeSource
}

// NewService creates a new Service with the default time source
func NewService(ledger Ledger, recognizer scanning.Recognizer) *Service {
	return &Service{
		ledger:     ledger,
		recognizer: recognizer,
		timeSource: &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(ledger Ledger, recognizer scanning.Recognizer, timeSource TimeSource) *Service {
	return &Service{
		ledger:     ledger,
		recognizer: recognizer,
		timeSource: timeSource,
	}
}

// ExtractFromImage runs the receipt pipeline: decode, normalize, recognize,
// parse. The caller reviews and edits the result before anything is saved.
// A missing recognition engine surfaces as scanning.ErrEngineMissing so the
// caller can show an installation-required message.
func (s *Service) ExtractFromImage(ctx context.Context, data []byte, contentType string) (*Extraction, error) {
	img, err := scanning.Decode(data, contentType)
	if err != nil {
		return nil, fmt.Errorf("decoding receipt: %w", err)
	}

	text, err := s.recognizer.Recognize(ctx, scanning.Normalize(img))
	if err != nil {
		slog.Error("Failed to recognize receipt text",
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		return nil, fmt.Errorf("recognizing text: %w", err)
	}

	return &Extraction{
		RawText: text,
		Amount:  scanning.ParseTotal(text),
	}, nil
}

// CreateExpense records a confirmed expense as one new ledger row. Free-text
// notes are appended to the raw text, which is opaque from then on. New rows
// always start Uncategorized.
func (s *Service) CreateExpense(ctx context.Context, date string, amount float64, rawText, notes string) (*Expense, error) {
	if date == "" {
		date = s.timeSource.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("date must be an ISO 8601 date (YYYY-MM-DD): %w", err)
	}
	if amount < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	if notes != "" {
		rawText = fmt.Sprintf("%s [NOTES: %s]", rawText, notes)
	}

	if err := s.ledger.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	e := Expense{
		Date:     date,
		Amount:   amount,
		RawText:  rawText,
		Category: CategoryUncategorized,
	}
	if err := s.ledger.Append(ctx, e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListExpenses returns every ledger row with its current row address
func (s *Service) ListExpenses(ctx context.Context) ([]Expense, error) {
	return s.ledger.ReadAll(ctx)
}

// UpdateExpense overwrites all four columns of the addressed row
func (s *Service) UpdateExpense(ctx context.Context, rowAddress int, date string, amount float64, category Category, rawText string) error {
	if rowAddress < firstDataRow {
		return fmt.Errorf("row address %d does not address a data row", rowAddress)
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("date must be an ISO 8601 date (YYYY-MM-DD): %w", err)
	}
	if amount < 0 {
		return fmt.Errorf("amount must not be negative")
	}
	if category == "" {
		category = CategoryUncategorized
	}
	if !category.Valid() {
		return fmt.Errorf("unknown category %q", category)
	}

	return s.ledger.Update(ctx, rowAddress, Expense{
		Date:     date,
		Amount:   amount,
		RawText:  rawText,
		Category: category,
	})
}

// DeleteExpense removes the addressed row. Every row below it shifts up by
// one address unit; callers must re-read before addressing again.
func (s *Service) DeleteExpense(ctx context.Context, rowAddress int) error {
	return s.ledger.Delete(ctx, rowAddress)
}

// MonthlyTotal returns the sum of amounts for the given month
func (s *Service) MonthlyTotal(ctx context.Context, year int, month time.Month) (float64, error) {
	return s.ledger.MonthlyTotal(ctx, year, month)
}

// Now exposes the service clock so handlers can default summary queries to
// the current month
func (s *Service) Now() time.Time {
	return s.timeSource.Now()
}
