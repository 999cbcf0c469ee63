package einvoice

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Status classifies an extraction outcome. A record is complete when every
// registered field was located, partial when at least one was, and failed
// when nothing could be found.
type Status string

const (
	StatusComplete Status = "complete"
	StatusPartial  Status = "partial"
	StatusFailed   Status = "failed"
)

// InvoiceRecord is the extraction result for one document. Fields not
// located stay at their zero value; Located records which ones were.
// Diagnostics collects soft-invariant violations and parse anomalies that
// did not block extraction.
type InvoiceRecord struct {
	Number      InvoiceNumber
	Date        *InvoiceDate
	SellerTaxID TaxID
	BuyerTaxID  TaxID
	SellerName  string
	BuyerName   string
	Amounts     *AmountBreakdown
	Items       []LineItem
	Located     map[string]bool
	Diagnostics []string
	Status      Status
}

// amounts lazily allocates the breakdown so independent amount locators can
// each write their own field.
func (r *InvoiceRecord) amounts() *AmountBreakdown {
	if r.Amounts == nil {
		r.Amounts = &AmountBreakdown{}
	}
	return r.Amounts
}

// LocatedField reports whether a named field was found during extraction.
func (r *InvoiceRecord) LocatedField(field string) bool {
	return r.Located[field]
}

// Diagnose appends a diagnostic message to the record.
func (r *InvoiceRecord) Diagnose(format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, fmt.Sprintf(format, args...))
}

// SerializedItem is the wire form of a line item.
type SerializedItem struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Amount      string `json:"amount"`
	Malformed   bool   `json:"malformed,omitempty"`
}

// SerializedRecord is the JSON form of an InvoiceRecord. Amounts travel as
// decimal strings to keep them exact; the date carries its source calendar
// so a reload restores the original form.
type SerializedRecord struct {
	InvoiceNumber string           `json:"invoice_number,omitempty"`
	Date          string           `json:"date,omitempty"`
	DateCalendar  Calendar         `json:"date_calendar,omitempty"`
	SellerTaxID   string           `json:"seller_tax_id,omitempty"`
	BuyerTaxID    string           `json:"buyer_tax_id,omitempty"`
	SellerName    string           `json:"seller_name,omitempty"`
	BuyerName     string           `json:"buyer_name,omitempty"`
	Subtotal      string           `json:"subtotal,omitempty"`
	Tax           string           `json:"tax,omitempty"`
	Total         string           `json:"total,omitempty"`
	Items         []SerializedItem `json:"items,omitempty"`
	Located       []string         `json:"located_fields"`
	Diagnostics   []string         `json:"diagnostics,omitempty"`
	Status        Status           `json:"status"`
}

// Serialize converts the record to its wire form.
func (r *InvoiceRecord) Serialize() SerializedRecord {
	s := SerializedRecord{
		InvoiceNumber: string(r.Number),
		SellerTaxID:   string(r.SellerTaxID),
		BuyerTaxID:    string(r.BuyerTaxID),
		SellerName:    r.SellerName,
		BuyerName:     r.BuyerName,
		Diagnostics:   r.Diagnostics,
		Status:        r.Status,
	}
	if r.Date != nil {
		s.Date = r.Date.ISO()
		s.DateCalendar = r.Date.Source
	}
	if r.Amounts != nil {
		if r.LocatedField(FieldSubtotal) {
			s.Subtotal = r.Amounts.Subtotal.String()
		}
		if r.LocatedField(FieldTax) {
			s.Tax = r.Amounts.Tax.String()
		}
		if r.LocatedField(FieldTotal) {
			s.Total = r.Amounts.Total.String()
		}
	}
	for _, item := range r.Items {
		s.Items = append(s.Items, SerializedItem{
			Description: item.Description,
			Quantity:    item.Quantity.String(),
			UnitPrice:   item.UnitPrice.String(),
			Amount:      item.Amount.String(),
			Malformed:   item.Malformed,
		})
	}
	// Stable order: registry order, then items.
	for _, loc := range registry() {
		if r.Located[loc.field] {
			s.Located = append(s.Located, loc.field)
		}
	}
	if r.Located[FieldItems] {
		s.Located = append(s.Located, FieldItems)
	}
	return s
}

// MarshalJSON encodes the record via its serialized form.
func (r *InvoiceRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Serialize())
}

// LoadRecord rebuilds an InvoiceRecord from its wire form. The round trip
// preserves every located field, the item list, diagnostics, and status.
func LoadRecord(s SerializedRecord) (*InvoiceRecord, error) {
	rec := &InvoiceRecord{
		SellerName:  s.SellerName,
		BuyerName:   s.BuyerName,
		Diagnostics: s.Diagnostics,
		Status:      s.Status,
		Located:     make(map[string]bool, len(s.Located)),
	}
	for _, field := range s.Located {
		rec.Located[field] = true
	}
	if s.InvoiceNumber != "" {
		number, err := ParseInvoiceNumber(s.InvoiceNumber)
		if err != nil {
			return nil, fmt.Errorf("load record: %w", err)
		}
		rec.Number = number
	}
	if s.SellerTaxID != "" {
		rec.SellerTaxID = TaxID(s.SellerTaxID)
	}
	if s.BuyerTaxID != "" {
		rec.BuyerTaxID = TaxID(s.BuyerTaxID)
	}
	if s.Date != "" {
		date, err := loadDate(s.Date, s.DateCalendar)
		if err != nil {
			return nil, fmt.Errorf("load record: %w", err)
		}
		rec.Date = date
	}
	if s.Subtotal != "" || s.Tax != "" || s.Total != "" {
		amounts := &AmountBreakdown{}
		var err error
		if amounts.Subtotal, err = loadAmount(s.Subtotal); err != nil {
			return nil, fmt.Errorf("load record: subtotal: %w", err)
		}
		if amounts.Tax, err = loadAmount(s.Tax); err != nil {
			return nil, fmt.Errorf("load record: tax: %w", err)
		}
		if amounts.Total, err = loadAmount(s.Total); err != nil {
			return nil, fmt.Errorf("load record: total: %w", err)
		}
		rec.Amounts = amounts
	}
	for _, item := range s.Items {
		loaded, err := loadItem(item)
		if err != nil {
			return nil, fmt.Errorf("load record: item %q: %w", item.Description, err)
		}
		rec.Items = append(rec.Items, loaded)
	}
	return rec, nil
}

func loadAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func loadItem(s SerializedItem) (LineItem, error) {
	item := LineItem{Description: s.Description, Malformed: s.Malformed}
	var err error
	if item.Quantity, err = loadAmount(s.Quantity); err != nil {
		return LineItem{}, err
	}
	if item.UnitPrice, err = loadAmount(s.UnitPrice); err != nil {
		return LineItem{}, err
	}
	if item.Amount, err = loadAmount(s.Amount); err != nil {
		return LineItem{}, err
	}
	return item, nil
}
