package einvoice

import (
	"fmt"
	"regexp"
	"strings"
)

// InvoiceNumber is a normalized Taiwanese e-invoice number: a two-letter
// track prefix followed by an eight-digit body, with any separating hyphen
// or space removed. "AB-12345678" and "AB12345678" normalize to the same
// value.
type InvoiceNumber string

// invoiceNumberPattern matches e-invoice numbers in running text. The
// Ministry of Finance format restricts the second track letter to A-D.
var invoiceNumberPattern = regexp.MustCompile(`[A-Z][A-D][-\s]?\d{8}`)

// normalizedNumberPattern is what a number must look like after separator
// removal.
var normalizedNumberPattern = regexp.MustCompile(`^[A-Z]{2}\d{8}$`)

// ParseInvoiceNumber normalizes a raw invoice-number token. It strips an
// optional hyphen or space between the track prefix and the digit body and
// verifies the 2-letter + 8-digit shape.
func ParseInvoiceNumber(raw string) (InvoiceNumber, error) {
	normalized := strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(raw))
	if !normalizedNumberPattern.MatchString(normalized) {
		return "", fmt.Errorf("malformed invoice number %q", raw)
	}
	return InvoiceNumber(normalized), nil
}

// Prefix returns the two-letter track prefix.
func (n InvoiceNumber) Prefix() string {
	if len(n) < 2 {
		return ""
	}
	return string(n[:2])
}

// Body returns the eight-digit body.
func (n InvoiceNumber) Body() string {
	if len(n) < 10 {
		return ""
	}
	return string(n[2:])
}

// LocateInvoiceNumber finds the first e-invoice number in document order.
// A document without one is not an error; found is false and the field
// stays unset. A matched token that fails normalization indicates a broken
// pattern definition and surfaces as a PatternFault.
func LocateInvoiceNumber(c RawContent) (InvoiceNumber, string, bool, error) {
	raw := invoiceNumberPattern.FindString(c.Text())
	if raw == "" {
		return "", "", false, nil
	}
	number, err := ParseInvoiceNumber(raw)
	if err != nil {
		return "", raw, true, &PatternFault{Field: FieldInvoiceNumber, Raw: raw, Err: err}
	}
	return number, raw, true, nil
}
