package einvoice

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountBreakdown carries the three labeled money fields of an invoice in
// the invoice's currency unit. Each field is non-negative with at most two
// fraction digits. subtotal + tax == total is a soft invariant: violations
// are flagged on the record, never rejected.
type AmountBreakdown struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Consistent reports whether subtotal + tax equals total within tolerance.
func (a AmountBreakdown) Consistent(tolerance decimal.Decimal) bool {
	return a.Subtotal.Add(a.Tax).Sub(a.Total).Abs().LessThanOrEqual(tolerance)
}

// Labeled amount patterns. Numbers may carry thousands separators and up to
// two fraction digits; an optional currency sign may precede them.
var (
	subtotalPattern = regexp.MustCompile(`(?i)(?:小計|未稅|銷售額|\bSubtotal\b)[^0-9]{0,12}\$?\s*([\d,]+(?:\.\d{1,2})?)`)
	taxPattern      = regexp.MustCompile(`(?i)(?:營業稅|稅額|稅金|\bTax\b)[^0-9]{0,12}\$?\s*([\d,]+(?:\.\d{1,2})?)`)
	// Total needs word boundaries so the label inside "Subtotal" does not
	// count as an explicit total.
	totalPattern = regexp.MustCompile(`(?i)(?:合計|總計|總額|應付|\bTotal\b)[^0-9]{0,12}\$?\s*([\d,]+(?:\.\d{1,2})?)`)
)

// locateAmount finds the first occurrence of a labeled amount and converts
// it to a decimal with thousands separators stripped.
func locateAmount(c RawContent, pattern *regexp.Regexp) (decimal.Decimal, string, bool) {
	m := pattern.FindStringSubmatch(c.Text())
	if m == nil {
		return decimal.Zero, "", false
	}
	amount, err := ParseAmount(m[1])
	if err != nil {
		return decimal.Zero, "", false
	}
	return amount, m[0], true
}

// ParseAmount converts a numeric token to a decimal, stripping thousands
// separators and surrounding space first.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(",", "", " ", "").Replace(s)
	return decimal.NewFromString(cleaned)
}

// sumItemAmounts totals the per-line amounts; used as the fallback for a
// missing explicit total.
func sumItemAmounts(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Amount)
	}
	return sum
}
