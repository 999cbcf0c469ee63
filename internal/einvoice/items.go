package einvoice

import (
	"iter"
	"strings"

	"github.com/shopspring/decimal"
)

// LineItem is one purchased item reconstructed from a table row.
// Quantity × unit price == amount is a soft invariant; Malformed marks rows
// whose numeric cells could not be parsed and were defaulted to zero.
type LineItem struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
	Malformed   bool
}

// ColumnIndex maps the semantic line-item columns to their positions in a
// header row. Column order varies across issuers. A value of -1 means the
// column is absent.
type ColumnIndex struct {
	Description int
	Quantity    int
	UnitPrice   int
	Amount      int
}

// Known header labels per column, matched by substring.
var (
	descriptionHeaders = []string{"品名", "品項", "項目", "商品", "名稱", "Description"}
	quantityHeaders    = []string{"數量", "Qty", "Quantity"}
	unitPriceHeaders   = []string{"單價", "價格", "Price"}
	amountHeaders      = []string{"金額", "小計", "Amount"}
)

// RowClassifier decides whether a table row below the header is a data row.
// Returning false skips the row entirely. Issuer-specific layouts can swap
// in their own predicate without touching the assembler's control flow.
type RowClassifier func(row []string, cols ColumnIndex) bool

// Assembler reconstructs line items from the table grids of a document.
type Assembler struct {
	classify RowClassifier
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithRowClassifier replaces the default data-row predicate.
func WithRowClassifier(classify RowClassifier) AssemblerOption {
	return func(a *Assembler) {
		a.classify = classify
	}
}

// NewAssembler creates an Assembler with the default row classifier.
func NewAssembler(opts ...AssemblerOption) *Assembler {
	a := &Assembler{classify: DefaultRowClassifier}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Items returns a lazy, restartable sequence of line items: one per data
// row of the first grid whose header matches the known column labels. Rows
// with a description but unparseable numeric cells are emitted with zeroed
// numbers and the Malformed flag set; descriptions matter even when the
// amounts are broken.
func (a *Assembler) Items(tables [][][]string) iter.Seq[LineItem] {
	return func(yield func(LineItem) bool) {
		for _, table := range tables {
			cols, headerRow, ok := findHeaderRow(table)
			if !ok {
				continue
			}
			for _, row := range table[headerRow+1:] {
				if blankRow(row) || !a.classify(row, cols) {
					continue
				}
				if !yield(makeItem(row, cols)) {
					return
				}
			}
			return
		}
	}
}

// Assemble collects the item sequence into a slice.
func (a *Assembler) Assemble(tables [][][]string) []LineItem {
	var items []LineItem
	for item := range a.Items(tables) {
		items = append(items, item)
	}
	return items
}

// DefaultRowClassifier keeps rows that carry a description. Rows whose
// description is empty or is itself a summary label (合計, 總計, 小計, 稅額)
// and that carry no parseable quantity or unit price are treated as
// footer/summary rows and skipped.
func DefaultRowClassifier(row []string, cols ColumnIndex) bool {
	description := cellAt(row, cols.Description)
	if strings.TrimSpace(description) == "" {
		return false
	}
	if isSummaryLabel(description) && !hasParseableNumber(row, cols.Quantity) && !hasParseableNumber(row, cols.UnitPrice) {
		return false
	}
	return true
}

var summaryLabels = []string{"合計", "總計", "小計", "稅額", "總額", "Total", "Subtotal", "Tax"}

func isSummaryLabel(s string) bool {
	s = strings.TrimSpace(s)
	for _, label := range summaryLabels {
		if strings.Contains(s, label) {
			return true
		}
	}
	return false
}

// findHeaderRow scans a grid for the row matching the line-item column
// labels. At least a description column and one numeric column must be
// identified for the grid to qualify.
func findHeaderRow(table [][]string) (ColumnIndex, int, bool) {
	for i, row := range table {
		cols := ColumnIndex{
			Description: findColumn(row, descriptionHeaders),
			Quantity:    findColumn(row, quantityHeaders),
			UnitPrice:   findColumn(row, unitPriceHeaders),
			Amount:      findColumn(row, amountHeaders),
		}
		if cols.Description < 0 {
			continue
		}
		if cols.Quantity < 0 && cols.UnitPrice < 0 && cols.Amount < 0 {
			continue
		}
		return cols, i, true
	}
	return ColumnIndex{}, 0, false
}

// findColumn returns the index of the first header cell containing one of
// the keywords, or -1.
func findColumn(header []string, keywords []string) int {
	for i, cell := range header {
		for _, keyword := range keywords {
			if strings.Contains(cell, keyword) {
				return i
			}
		}
	}
	return -1
}

func makeItem(row []string, cols ColumnIndex) LineItem {
	item := LineItem{
		Description: strings.TrimSpace(cellAt(row, cols.Description)),
	}

	quantity, okQty := parseCell(row, cols.Quantity)
	unitPrice, okPrice := parseCell(row, cols.UnitPrice)
	amount, okAmount := parseCell(row, cols.Amount)

	item.Quantity = quantity
	item.UnitPrice = unitPrice
	item.Amount = amount

	// A missing amount column is recoverable when both factors parsed.
	if !okAmount && okQty && okPrice && cols.Amount < 0 {
		item.Amount = quantity.Mul(unitPrice)
		okAmount = true
	}

	if (cols.Quantity >= 0 && !okQty) || (cols.UnitPrice >= 0 && !okPrice) || (cols.Amount >= 0 && !okAmount) {
		item.Malformed = true
	}
	return item
}

// parseCell parses the numeric cell at index, tolerating thousands
// separators. Missing or unparseable cells yield zero.
func parseCell(row []string, index int) (decimal.Decimal, bool) {
	cell := strings.TrimSpace(cellAt(row, index))
	if cell == "" {
		return decimal.Zero, false
	}
	value, err := ParseAmount(cell)
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}

func hasParseableNumber(row []string, index int) bool {
	_, ok := parseCell(row, index)
	return ok
}

func cellAt(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return row[index]
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
