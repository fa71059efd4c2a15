package expense

// Category classifies an expense. The set is fixed; rows are created as
// Uncategorized and recategorized later by the user.
type Category string

const (
	CategoryUncategorized Category = "Uncategorized"
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryUtilities     Category = "Utilities"
	CategoryShopping      Category = "Shopping"
	CategoryEntertainment Category = "Entertainment"
)

// Categories lists every valid category in presentation order
var Categories = []Category{
	CategoryUncategorized,
	CategoryFood,
	CategoryTransport,
	CategoryUtilities,
	CategoryShopping,
	CategoryEntertainment,
}

// Valid reports whether c is one of the fixed categories
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Expense represents one data row of the ledger.
//
// RowAddress is the 1-based position of the row in the backing sheet,
// including the header offset, so the first data row is address 2. It is NOT
// a durable identifier: deleting row k shifts the address of every row after
// k. Addresses are recomputed on every read and never cached across
// operations.
type Expense struct {
	RowAddress int      `json:"row_address,omitempty"`
	Date       string   `json:"date"` // ISO 8601 date, no time component
	Amount     float64  `json:"amount"`
	RawText    string   `json:"raw_text"`
	Category   Category `json:"category"`
}
