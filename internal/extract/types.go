package extract

// TotalMarker is the literal that turns a row into a section terminator.
const TotalMarker = "Total:"

// MinProductCells is the fewest <td> cells a row needs to be read as a product.
const MinProductCells = 3

// Section is a named group of product rows closed by a "Total:" row.
type Section struct {
	CategoryName string       `json:"categoryName"`
	Products     []ProductRow `json:"products"`
}

// ProductRow is a single product line from the export.
type ProductRow struct {
	SKU     string   `json:"sku"`
	Name    string   `json:"name"`
	Columns []string `json:"columns"` // Trimmed text of every cell, in column order
}

// SkipReason explains why a non-terminator row was not collected.
type SkipReason string

const (
	SkipTooFewCells   SkipReason = "too_few_cells"
	SkipEmptySKU      SkipReason = "empty_sku"
	SkipNonNumericSKU SkipReason = "non_numeric_sku"
)

// Stats describes one extraction pass. It is diagnostic only; the sections
// returned are the same whether or not anyone reads it.
type Stats struct {
	Rows        int                `json:"rows"`
	Terminators int                `json:"terminators"`
	Products    int                `json:"products"`
	Skipped     map[SkipReason]int `json:"skipped"`
	Dangling    int                `json:"dangling"` // Products after the last terminator, discarded
}

// SkippedTotal returns the number of rows skipped for any reason.
func (s Stats) SkippedTotal() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}

// Result is the full output of [Extractor.Run].
type Result struct {
	Sections []Section `json:"sections"`
	Stats    Stats     `json:"stats"`
}
