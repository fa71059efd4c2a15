package expense

import (
	"context"
	"time"
)

// Ledger defines the row-store operations over the expense sheet.
//
// All operations are synchronous and round-trip to the backing store on
// every call; nothing is cached between calls. Because rows are addressed by
// position rather than a durable key, concurrent writers produce undefined
// address drift; the design assumes a single interactive user.
type Ledger interface {
	// EnsureSchema writes the canonical header when row 1 is empty. A
	// non-empty header that differs from canonical is left untouched.
	EnsureSchema(ctx context.Context) error

	// Append adds one trailing data row for the expense
	Append(ctx context.Context, e Expense) error

	// ReadAll returns every data row with its current row address. An empty
	// store yields an empty, non-nil slice.
	ReadAll(ctx context.Context) ([]Expense, error)

	// Update overwrites all four columns of the addressed row in one bulk
	// write, preserving column order
	Update(ctx context.Context, rowAddress int, e Expense) error

	// Delete removes the addressed row; the backing store shifts every later
	// row up by one, so addresses are recomputed on the next read
	Delete(ctx context.Context, rowAddress int) error

	// MonthlyTotal sums the amounts of rows whose date falls in the given
	// year and month. Rows with unparsable dates are excluded, not errors.
	MonthlyTotal(ctx context.Context, year int, month time.Month) (float64, error)
}
