package einvoice

import "fmt"

// Field names shared by locators, located flags, and the serialized record.
const (
	FieldInvoiceNumber = "invoice_number"
	FieldDate          = "date"
	FieldSellerTaxID   = "seller_tax_id"
	FieldBuyerTaxID    = "buyer_tax_id"
	FieldSellerName    = "seller_name"
	FieldBuyerName     = "buyer_name"
	FieldSubtotal      = "subtotal"
	FieldTax           = "tax"
	FieldTotal         = "total"
	FieldItems         = "items"
)

// PatternFault reports that a locator matched a token its own normalization
// then rejected. This cannot happen with a correct pattern definition, so it
// is surfaced as a hard failure rather than degraded extraction.
type PatternFault struct {
	Field string
	Raw   string
	Err   error
}

func (f *PatternFault) Error() string {
	return fmt.Sprintf("internal pattern fault on %s: matched %q: %v", f.Field, f.Raw, f.Err)
}

func (f *PatternFault) Unwrap() error {
	return f.Err
}

// locator is one entry in the field-locator registry. Locators are
// independent and order-insensitive: each reads RawContent and writes at
// most its own field into the record under construction. The amount locator
// is the single sanctioned exception; it may consult the already-assembled
// line items as a fallback for a missing total.
type locator struct {
	field string
	find  func(c RawContent, rec *InvoiceRecord) (raw string, found bool, err error)
}

// registry lists every field locator. Order only decides diagnostic
// ordering, not results.
func registry() []locator {
	return []locator{
		{field: FieldInvoiceNumber, find: findInvoiceNumber},
		{field: FieldDate, find: findDate},
		{field: FieldSellerTaxID, find: findSellerTaxID},
		{field: FieldBuyerTaxID, find: findBuyerTaxID},
		{field: FieldSellerName, find: findSellerName},
		{field: FieldBuyerName, find: findBuyerName},
		{field: FieldSubtotal, find: findSubtotal},
		{field: FieldTax, find: findTax},
		{field: FieldTotal, find: findTotal},
	}
}

func findInvoiceNumber(c RawContent, rec *InvoiceRecord) (string, bool, error) {
	number, raw, found, err := LocateInvoiceNumber(c)
	if err != nil || !found {
		return raw, found, err
	}
	rec.Number = number
	return raw, true, nil
}

func findDate(c RawContent, rec *InvoiceRecord) (string, bool, error) {
	date, raw, found, err := LocateDate(c)
	if err != nil || !found {
		return raw, found, err
	}
	rec.Date = &date
	return raw, true, nil
}

func findSellerTaxID(c RawContent, rec *InvoiceRecord) (string, bool, error) {
	id, raw, found := locateTaxID(c, sellerTaxIDLabels)
	if !found {
		return "", false, nil
	}
	rec.SellerTaxID = id
	return raw, true, nil
}

func findBuyerTaxID(c RawContent, rec *InvoiceRecord) (string, bool, error) {
	id, raw, found := locateTaxID(c, buyerTaxIDLabels)
	if !found {
		return "", false, nil
	}
	rec.BuyerTaxID = id
	return raw, true, nil
}

func findSellerName(c RawContent, rec *InvoiceRecord) (string, bool, error) {
	name, raw, found := locatePartyName(c, sellerNameLabels)
	if !found {
		return "", false, nil
	}
	rec.SellerName = name
	return raw, true, nil
}

func findBuyerName(c RawContent, rec *InvoiceRecord) (string, bool, error) {
	name, raw, found := locatePartyName(c, buyerNameLabels)
	if !found {
		return "", false, nil
	}
	rec.BuyerName = name
	return raw, true, nil
}

func findSubtotal(c RawContent, rec *InvoiceRecord) (string, bool, error) {
	amount, raw, found := locateAmount(c, subtotalPattern)
	if !found {
		return "", false, nil
	}
	rec.amounts().Subtotal = amount
	return raw, true, nil
}

func findTax(c RawContent, rec *InvoiceRecord) (string, bool, error) {
	amount, raw, found := locateAmount(c, taxPattern)
	if !found {
		return "", false, nil
	}
	rec.amounts().Tax = amount
	return raw, true, nil
}

// findTotal locates a labeled total or, when no label is present, falls
// back to summing the line-item amounts already assembled on the record.
func findTotal(c RawContent, rec *InvoiceRecord) (string, bool, error) {
	amount, raw, found := locateAmount(c, totalPattern)
	if found {
		rec.amounts().Total = amount
		return raw, true, nil
	}
	if len(rec.Items) == 0 {
		return "", false, nil
	}
	rec.amounts().Total = sumItemAmounts(rec.Items)
	return "", true, nil
}
