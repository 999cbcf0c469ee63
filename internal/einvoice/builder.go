package einvoice

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultTolerance bounds the soft amount invariants: two money values are
// considered equal when they differ by at most one cent.
var DefaultTolerance = decimal.NewFromFloat(0.01)

// Builder runs the full extraction pipeline over raw document content:
// line-item assembly, the field-locator registry, soft-invariant checks,
// and status classification. A Builder is stateless between calls; the same
// content always yields the same record.
type Builder struct {
	assembler *Assembler
	tolerance decimal.Decimal
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithAssembler replaces the line-item assembler.
func WithAssembler(assembler *Assembler) BuilderOption {
	return func(b *Builder) {
		b.assembler = assembler
	}
}

// WithTolerance replaces the amount-comparison tolerance.
func WithTolerance(tolerance decimal.Decimal) BuilderOption {
	return func(b *Builder) {
		b.tolerance = tolerance
	}
}

// NewBuilder creates a Builder with the default assembler and tolerance.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		assembler: NewAssembler(),
		tolerance: DefaultTolerance,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build extracts an invoice record from the content. Empty content fails
// with ErrEmptySource and a pattern fault aborts the build; every other
// anomaly degrades the record instead of failing it, ending up either as an
// absent field or a diagnostic.
func (b *Builder) Build(c RawContent) (*InvoiceRecord, error) {
	if c.Empty() {
		return nil, ErrEmptySource
	}

	rec := &InvoiceRecord{Located: make(map[string]bool)}

	// Items come first so the total locator can fall back to their sum.
	rec.Items = b.assembler.Assemble(c.Tables())
	if len(rec.Items) > 0 {
		rec.Located[FieldItems] = true
	}

	for _, loc := range registry() {
		raw, found, err := loc.find(c, rec)
		if err != nil {
			var fault *PatternFault
			if errors.As(err, &fault) {
				return nil, fault
			}
			// Matched but invalid: field stays unset, attempt recorded.
			rec.Diagnose("%s: token %q rejected: %v", loc.field, raw, err)
			continue
		}
		if found {
			rec.Located[loc.field] = true
		}
	}

	violated := b.check(c, rec)
	rec.Status = classify(rec, violated)
	return rec, nil
}

// check runs the soft invariants, records violations as diagnostics, and
// reports whether any invariant was violated. Purely informational
// diagnostics (the unlabeled candidate scan) do not count.
func (b *Builder) check(c RawContent, rec *InvoiceRecord) bool {
	violated := false

	if rec.Amounts != nil && rec.LocatedField(FieldSubtotal) && rec.LocatedField(FieldTax) && rec.LocatedField(FieldTotal) {
		if !rec.Amounts.Consistent(b.tolerance) {
			rec.Diagnose("amounts: subtotal %s + tax %s does not equal total %s",
				rec.Amounts.Subtotal, rec.Amounts.Tax, rec.Amounts.Total)
			violated = true
		}
	}

	for i, item := range rec.Items {
		if item.Malformed {
			rec.Diagnose("items: row %d (%s) has unparseable numeric cells", i+1, item.Description)
			violated = true
			continue
		}
		if item.Quantity.IsZero() && item.UnitPrice.IsZero() {
			continue
		}
		product := item.Quantity.Mul(item.UnitPrice)
		if product.Sub(item.Amount).Abs().GreaterThan(b.tolerance) {
			rec.Diagnose("items: row %d (%s): %s x %s = %s differs from amount %s",
				i+1, item.Description, item.Quantity, item.UnitPrice, product, item.Amount)
			violated = true
		}
	}

	if b.checkTaxIDs(c, rec) {
		violated = true
	}
	return violated
}

// checkTaxIDs cross-references the labeled tax ids against every
// checksum-valid candidate in the document. Candidates never fill a role;
// they only point out what the labels may have missed. Returns true when a
// labeled id fails its checksum.
func (b *Builder) checkTaxIDs(c RawContent, rec *InvoiceRecord) bool {
	violated := false
	labeled := map[TaxID]bool{}
	for _, pair := range []struct {
		field string
		id    TaxID
	}{
		{FieldSellerTaxID, rec.SellerTaxID},
		{FieldBuyerTaxID, rec.BuyerTaxID},
	} {
		if !rec.LocatedField(pair.field) {
			continue
		}
		labeled[pair.id] = true
		if !ValidTaxID(string(pair.id)) {
			rec.Diagnose("%s: %s fails the uniform-number checksum", pair.field, pair.id)
			violated = true
		}
	}

	for _, id := range ScanTaxIDs(c) {
		if !labeled[id] {
			rec.Diagnose("tax_id: unlabeled checksum-valid candidate %s", id)
		}
	}
	return violated
}

// Fields that must all be present for a complete record. Party names and
// line items are informative but never gate completeness.
var completionFields = []string{
	FieldInvoiceNumber,
	FieldDate,
	FieldSellerTaxID,
	FieldBuyerTaxID,
	FieldSubtotal,
	FieldTax,
	FieldTotal,
}

// classify derives the record status. Without an invoice number the
// document is not recognized as an invoice at all and the record fails.
// Complete requires the number, date, both tax ids and the full amount
// breakdown, with every soft invariant holding; anything in between is
// partial.
func classify(rec *InvoiceRecord, violated bool) Status {
	if !rec.LocatedField(FieldInvoiceNumber) {
		return StatusFailed
	}
	for _, field := range completionFields {
		if !rec.LocatedField(field) {
			return StatusPartial
		}
	}
	if violated {
		return StatusPartial
	}
	return StatusComplete
}

// BuildFromText is a convenience wrapper over Build for plain-text sources
// with no table grids.
func (b *Builder) BuildFromText(text string) (*InvoiceRecord, error) {
	return b.Build(NewRawContentFromText(text, nil))
}

// Summary renders a short human-readable report of the record, one field
// per line, for CLI output.
func (r *InvoiceRecord) Summary() string {
	out := fmt.Sprintf("Status: %s\n", r.Status)
	if r.LocatedField(FieldInvoiceNumber) {
		out += fmt.Sprintf("Invoice number: %s\n", r.Number)
	}
	if r.Date != nil {
		out += fmt.Sprintf("Date: %s (%s)\n", r.Date.ISO(), r.Date.Source)
	}
	if r.LocatedField(FieldSellerTaxID) {
		out += fmt.Sprintf("Seller tax ID: %s\n", r.SellerTaxID)
	}
	if r.LocatedField(FieldBuyerTaxID) {
		out += fmt.Sprintf("Buyer tax ID: %s\n", r.BuyerTaxID)
	}
	if r.SellerName != "" {
		out += fmt.Sprintf("Seller: %s\n", r.SellerName)
	}
	if r.BuyerName != "" {
		out += fmt.Sprintf("Buyer: %s\n", r.BuyerName)
	}
	if r.Amounts != nil {
		if r.LocatedField(FieldSubtotal) {
			out += fmt.Sprintf("Subtotal: %s\n", r.Amounts.Subtotal)
		}
		if r.LocatedField(FieldTax) {
			out += fmt.Sprintf("Tax: %s\n", r.Amounts.Tax)
		}
		if r.LocatedField(FieldTotal) {
			out += fmt.Sprintf("Total: %s\n", r.Amounts.Total)
		}
	}
	if len(r.Items) > 0 {
		out += fmt.Sprintf("Items: %d\n", len(r.Items))
		for _, item := range r.Items {
			out += fmt.Sprintf("  - %s x%s @ %s = %s\n", item.Description, item.Quantity, item.UnitPrice, item.Amount)
		}
	}
	for _, d := range r.Diagnostics {
		out += fmt.Sprintf("Note: %s\n", d)
	}
	return out
}
