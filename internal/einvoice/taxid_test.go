package einvoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidTaxID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{name: "valid checksum", id: "22099131", want: true},
		{name: "another valid checksum", id: "04595257", want: true},
		{name: "seventh digit seven exception", id: "00000079", want: true},
		{name: "checksum off by one without exception", id: "00000019", want: false},
		{name: "invalid checksum", id: "12345678", want: false},
		{name: "too short", id: "1234567", want: false},
		{name: "too long", id: "123456789", want: false},
		{name: "non digits", id: "1234567a", want: false},
		{name: "empty", id: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidTaxID(tt.id))
		})
	}
}

func TestLocateTaxID(t *testing.T) {
	text := "賣方統一編號: 22099131\n買方統編: 04595257\n"
	c := NewRawContentFromText(text, nil)

	seller, raw, found := locateTaxID(c, sellerTaxIDLabels)
	assert.True(t, found)
	assert.Equal(t, TaxID("22099131"), seller)
	assert.Contains(t, raw, "賣方統一編號")

	buyer, _, found := locateTaxID(c, buyerTaxIDLabels)
	assert.True(t, found)
	assert.Equal(t, TaxID("04595257"), buyer)
}

func TestLocateTaxIDLabelDriven(t *testing.T) {
	// An unlabeled 8-digit run must never be attributed to a party.
	c := NewRawContentFromText("發票金額 22099131", nil)

	_, _, found := locateTaxID(c, sellerTaxIDLabels)
	assert.False(t, found)
	_, _, found = locateTaxID(c, buyerTaxIDLabels)
	assert.False(t, found)
}

func TestScanTaxIDs(t *testing.T) {
	// 12345678 fails the checksum; 22099131 appears twice but is reported
	// once.
	text := "ref 12345678 a 22099131 b 04595257 c 22099131"
	ids := ScanTaxIDs(NewRawContentFromText(text, nil))
	assert.Equal(t, []TaxID{"22099131", "04595257"}, ids)
}
