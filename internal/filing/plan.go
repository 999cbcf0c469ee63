package filing

import (
	"fmt"

	"github.com/einvtw/einvoice-filer/internal/einvoice"
)

// Portal form selectors. The filing page keys its inputs by element id;
// these match the declaration form of the e-invoice portal.
const (
	selectorInvoiceNumber = "#invoiceNumber"
	selectorInvoiceDate   = "#invoiceDate"
	selectorSellerTaxID   = "#sellerTaxId"
	selectorBuyerTaxID    = "#buyerTaxId"
	selectorTotalAmount   = "#totalAmount"
	selectorTaxAmount     = "#taxAmount"
)

// PlanEntry is one form input to fill: which element, with what value, and
// whether filing is pointless without it.
type PlanEntry struct {
	Field    string
	Selector string
	Value    string
	Critical bool
}

// FillReport summarizes a filing attempt. Filled and Skipped list field
// names; Skipped fields had no extracted value and are left for the
// operator to complete by hand.
type FillReport struct {
	Filled     []string `json:"filled"`
	Skipped    []string `json:"skipped"`
	Screenshot string   `json:"screenshot,omitempty"`
}

// BuildPlan maps an extracted record onto the portal form. The invoice
// number and total amount are critical: without both there is nothing
// worth staging on the portal, and the plan fails.
func BuildPlan(rec *einvoice.InvoiceRecord) ([]PlanEntry, error) {
	if !rec.LocatedField(einvoice.FieldInvoiceNumber) {
		return nil, fmt.Errorf("record has no invoice number, refusing to file")
	}
	if !rec.LocatedField(einvoice.FieldTotal) {
		return nil, fmt.Errorf("record has no total amount, refusing to file")
	}

	entries := []PlanEntry{
		{
			Field:    einvoice.FieldInvoiceNumber,
			Selector: selectorInvoiceNumber,
			Value:    string(rec.Number),
			Critical: true,
		},
		{
			Field:    einvoice.FieldTotal,
			Selector: selectorTotalAmount,
			Value:    rec.Amounts.Total.String(),
			Critical: true,
		},
	}

	if rec.Date != nil {
		entries = append(entries, PlanEntry{
			Field:    einvoice.FieldDate,
			Selector: selectorInvoiceDate,
			Value:    rec.Date.ISO(),
		})
	} else {
		entries = append(entries, PlanEntry{Field: einvoice.FieldDate, Selector: selectorInvoiceDate})
	}

	entries = append(entries,
		taxIDEntry(einvoice.FieldSellerTaxID, selectorSellerTaxID, rec.SellerTaxID, rec),
		taxIDEntry(einvoice.FieldBuyerTaxID, selectorBuyerTaxID, rec.BuyerTaxID, rec),
	)

	tax := PlanEntry{Field: einvoice.FieldTax, Selector: selectorTaxAmount}
	if rec.LocatedField(einvoice.FieldTax) {
		tax.Value = rec.Amounts.Tax.String()
	}
	entries = append(entries, tax)

	return entries, nil
}

func taxIDEntry(field, selector string, id einvoice.TaxID, rec *einvoice.InvoiceRecord) PlanEntry {
	entry := PlanEntry{Field: field, Selector: selector}
	if rec.LocatedField(field) {
		entry.Value = string(id)
	}
	return entry
}
