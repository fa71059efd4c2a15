package expense

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"google.golang.org/api/googleapi"
)

// fakeSheet is an in-memory rowAPI with real sheet semantics: rows are
// positional and deleting one shifts everything below it up
type fakeSheet struct {
	rows      [][]interface{}
	getErr    error
	updateErr error
	appendErr error
	deleteErr error
}

func (f *fakeSheet) getRange(ctx context.Context, rng string) ([][]interface{}, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	start, end, err := f.parseRange(rng)
	if err != nil {
		return nil, err
	}
	if start > len(f.rows) {
		return nil, nil
	}
	if end > len(f.rows) {
		end = len(f.rows)
	}
	out := make([][]interface{}, end-start+1)
	copy(out, f.rows[start-1:end])
	return out, nil
}

func (f *fakeSheet) updateRange(ctx context.Context, rng string, values [][]interface{}) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	start, _, err := f.parseRange(rng)
	if err != nil {
		return err
	}
	for len(f.rows) < start {
		f.rows = append(f.rows, []interface{}{})
	}
	f.rows[start-1] = values[0]
	return nil
}

func (f *fakeSheet) appendRow(ctx context.Context, row []interface{}) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.rows = append(f.rows, row)
	return nil
}

func (f *fakeSheet) deleteRow(ctx context.Context, rowAddress int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	idx := int(rowAddress) - 1
	if idx < 0 || idx >= len(f.rows) {
		return fmt.Errorf("row %d out of range", rowAddress)
	}
	f.rows = append(f.rows[:idx], f.rows[idx+1:]...)
	return nil
}

// parseRange understands the two shapes the ledger uses: "A2:D" (open-ended)
// and "A1:D1"/"A5:D5" (single row)
func (f *fakeSheet) parseRange(rng string) (start, end int, err error) {
	if n, _ := fmt.Sscanf(rng, "A%d:D%d", &start, &end); n == 2 {
		return start, end, nil
	}
	if n, _ := fmt.Sscanf(rng, "A%d:D", &start); n == 1 {
		return start, len(f.rows), nil
	}
	return 0, 0, fmt.Errorf("unsupported range %q", rng)
}

var _ = Describe("SheetsLedger", func() {
	var (
		sheet  *fakeSheet
		ledger *SheetsLedger
		ctx    context.Context
	)

	BeforeEach(func() {
		sheet = &fakeSheet{}
		ledger = &SheetsLedger{api: sheet}
		ctx = context.Background()
	})

	appendExpense := func(date string, amount float64, raw string) {
		Expect(ledger.Append(ctx, Expense{
			Date:     date,
			Amount:   amount,
			RawText:  raw,
			Category: CategoryUncategorized,
		})).To(Succeed())
	}

	Describe("EnsureSchema", func() {
		When("the sheet is empty", func() {
			It("writes the canonical header", func() {
				Expect(ledger.EnsureSchema(ctx)).To(Succeed())
				Expect(sheet.rows).To(HaveLen(1))
				Expect(sheet.rows[0]).To(Equal([]interface{}{"Date", "Amount", "Raw Text", "Category"}))
			})
		})

		When("the canonical header is already present", func() {
			BeforeEach(func() {
				sheet.rows = [][]interface{}{{"Date", "Amount", "Raw Text", "Category"}}
			})

			It("leaves the sheet unchanged", func() {
				Expect(ledger.EnsureSchema(ctx)).To(Succeed())
				Expect(sheet.rows).To(HaveLen(1))
			})
		})

		When("a different header is present", func() {
			BeforeEach(func() {
				sheet.rows = [][]interface{}{{"When", "How Much", "What", "Kind"}}
			})

			It("leaves it untouched rather than overwriting", func() {
				Expect(ledger.EnsureSchema(ctx)).To(Succeed())
				Expect(sheet.rows[0]).To(Equal([]interface{}{"When", "How Much", "What", "Kind"}))
			})
		})

		When("the store cannot be read", func() {
			BeforeEach(func() {
				sheet.getErr = &googleapi.Error{Code: http.StatusUnauthorized, Message: "invalid credentials"}
			})

			It("returns an auth-classified store error", func() {
				err := ledger.EnsureSchema(ctx)
				var serr *StoreError
				Expect(errors.As(err, &serr)).To(BeTrue())
				Expect(serr.Kind).To(Equal(StoreAuthFailure))
			})
		})
	})

	Describe("Append and ReadAll", func() {
		BeforeEach(func() {
			Expect(ledger.EnsureSchema(ctx)).To(Succeed())
		})

		When("several rows are appended", func() {
			BeforeEach(func() {
				appendExpense("2024-01-01", 1.00, "first")
				appendExpense("2024-01-02", 2.00, "second")
				appendExpense("2024-01-03", 3.00, "third")
			})

			It("reads them back in append order", func() {
				expenses, err := ledger.ReadAll(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(expenses).To(HaveLen(3))
				Expect(expenses[0].RawText).To(Equal("first"))
				Expect(expenses[2].RawText).To(Equal("third"))
			})

			It("assigns row addresses 2..N+1", func() {
				expenses, err := ledger.ReadAll(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(expenses[0].RowAddress).To(Equal(2))
				Expect(expenses[1].RowAddress).To(Equal(3))
				Expect(expenses[2].RowAddress).To(Equal(4))
			})
		})

		When("the store is empty apart from the header", func() {
			It("returns an empty, non-nil result", func() {
				expenses, err := ledger.ReadAll(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(expenses).NotTo(BeNil())
				Expect(expenses).To(BeEmpty())
			})
		})

		When("the store returns formatted cell values", func() {
			BeforeEach(func() {
				sheet.rows = append(sheet.rows, []interface{}{"2024-01-05", "$12.34", "lunch", "Food"})
				sheet.rows = append(sheet.rows, []interface{}{"2024-01-06", 5.5, "cab", "Transport"})
			})

			It("parses string and numeric amounts alike", func() {
				expenses, err := ledger.ReadAll(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(expenses[0].Amount).To(Equal(12.34))
				Expect(expenses[1].Amount).To(Equal(5.5))
			})
		})

		When("the store is unreachable", func() {
			BeforeEach(func() {
				sheet.getErr = errors.New("dial tcp: connection refused")
			})

			It("returns an empty slice plus a classified error", func() {
				expenses, err := ledger.ReadAll(ctx)
				Expect(expenses).NotTo(BeNil())
				Expect(expenses).To(BeEmpty())
				var serr *StoreError
				Expect(errors.As(err, &serr)).To(BeTrue())
				Expect(serr.Kind).To(Equal(StoreUnreachable))
			})
		})

		When("the spreadsheet does not exist", func() {
			BeforeEach(func() {
				sheet.getErr = &googleapi.Error{Code: http.StatusNotFound, Message: "not found"}
			})

			It("classifies the error as not-found with an actionable message", func() {
				_, err := ledger.ReadAll(ctx)
				var serr *StoreError
				Expect(errors.As(err, &serr)).To(BeTrue())
				Expect(serr.Kind).To(Equal(StoreNotFound))
				Expect(serr.Message()).To(ContainSubstring("share it"))
			})
		})
	})

	Describe("Delete", func() {
		BeforeEach(func() {
			Expect(ledger.EnsureSchema(ctx)).To(Succeed())
			appendExpense("2024-01-01", 1.00, "first")
			appendExpense("2024-01-02", 2.00, "second")
			appendExpense("2024-01-03", 3.00, "third")
		})

		When("a middle row is deleted", func() {
			BeforeEach(func() {
				Expect(ledger.Delete(ctx, 3)).To(Succeed())
			})

			It("removes exactly one row", func() {
				expenses, err := ledger.ReadAll(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(expenses).To(HaveLen(2))
			})

			It("renumbers: the row that followed now reports the freed address", func() {
				expenses, err := ledger.ReadAll(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(expenses[1].RawText).To(Equal("third"))
				Expect(expenses[1].RowAddress).To(Equal(3))
			})
		})

		When("the address points at the header row", func() {
			It("refuses the delete", func() {
				Expect(ledger.Delete(ctx, 1)).To(HaveOccurred())
				Expect(sheet.rows).To(HaveLen(4))
			})
		})
	})

	Describe("Update", func() {
		BeforeEach(func() {
			Expect(ledger.EnsureSchema(ctx)).To(Succeed())
			appendExpense("2024-01-01", 1.00, "first")
			appendExpense("2024-01-02", 2.00, "second")
		})

		When("a row is updated", func() {
			BeforeEach(func() {
				Expect(ledger.Update(ctx, 3, Expense{
					Date:     "2024-02-02",
					Amount:   9.99,
					RawText:  "revised",
					Category: CategoryShopping,
				})).To(Succeed())
			})

			It("shows exactly the new values at that address", func() {
				expenses, err := ledger.ReadAll(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(expenses[1]).To(Equal(Expense{
					RowAddress: 3,
					Date:       "2024-02-02",
					Amount:     9.99,
					RawText:    "revised",
					Category:   CategoryShopping,
				}))
			})

			It("leaves every other row unchanged", func() {
				expenses, err := ledger.ReadAll(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(expenses[0]).To(Equal(Expense{
					RowAddress: 2,
					Date:       "2024-01-01",
					Amount:     1.00,
					RawText:    "first",
					Category:   CategoryUncategorized,
				}))
			})
		})

		When("the address points at the header row", func() {
			It("refuses the update", func() {
				Expect(ledger.Update(ctx, 1, Expense{})).To(HaveOccurred())
			})
		})
	})

	Describe("MonthlyTotal", func() {
		var (
			total float64
			err   error
		)

		JustBeforeEach(func() {
			total, err = ledger.MonthlyTotal(ctx, 2024, time.March)
		})

		When("rows span three months", func() {
			BeforeEach(func() {
				Expect(ledger.EnsureSchema(ctx)).To(Succeed())
				appendExpense("2024-02-28", 10.00, "feb")
				appendExpense("2024-03-01", 5.25, "mar a")
				appendExpense("2024-03-31", 4.75, "mar b")
				appendExpense("2024-04-01", 20.00, "apr")
			})

			It("sums only the matching month", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(total).To(Equal(10.00))
			})
		})

		When("a row has an unparsable date", func() {
			BeforeEach(func() {
				Expect(ledger.EnsureSchema(ctx)).To(Succeed())
				appendExpense("2024-03-01", 5.00, "good")
				appendExpense("not a date", 100.00, "bad")
			})

			It("excludes the row instead of failing", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(total).To(Equal(5.00))
			})
		})

		When("the store is empty", func() {
			It("returns zero", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(total).To(Equal(0.0))
			})
		})

		When("the store is inaccessible", func() {
			BeforeEach(func() {
				sheet.getErr = errors.New("dial tcp: connection refused")
			})

			It("returns zero plus the classified error", func() {
				Expect(total).To(Equal(0.0))
				var serr *StoreError
				Expect(errors.As(err, &serr)).To(BeTrue())
			})
		})
	})
})
