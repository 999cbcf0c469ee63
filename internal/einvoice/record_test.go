package einvoice

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRoundTrip(t *testing.T) {
	rec, err := NewBuilder().Build(fullInvoiceContent())
	require.NoError(t, err)

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var wire SerializedRecord
	require.NoError(t, json.Unmarshal(data, &wire))

	loaded, err := LoadRecord(wire)
	require.NoError(t, err)

	assert.Equal(t, rec.Number, loaded.Number)
	require.NotNil(t, loaded.Date)
	assert.Equal(t, rec.Date.ISO(), loaded.Date.ISO())
	assert.Equal(t, rec.Date.Source, loaded.Date.Source)
	assert.Equal(t, rec.SellerTaxID, loaded.SellerTaxID)
	assert.Equal(t, rec.BuyerTaxID, loaded.BuyerTaxID)
	assert.Equal(t, rec.SellerName, loaded.SellerName)
	assert.Equal(t, rec.BuyerName, loaded.BuyerName)
	assert.Equal(t, rec.Status, loaded.Status)

	require.NotNil(t, loaded.Amounts)
	assert.True(t, rec.Amounts.Subtotal.Equal(loaded.Amounts.Subtotal))
	assert.True(t, rec.Amounts.Tax.Equal(loaded.Amounts.Tax))
	assert.True(t, rec.Amounts.Total.Equal(loaded.Amounts.Total))

	require.Len(t, loaded.Items, len(rec.Items))
	for i := range rec.Items {
		assert.Equal(t, rec.Items[i].Description, loaded.Items[i].Description)
		assert.True(t, rec.Items[i].Amount.Equal(loaded.Items[i].Amount))
	}

	for _, field := range wire.Located {
		assert.True(t, loaded.LocatedField(field))
	}

	// A second serialization is byte-identical to the first.
	again, err := json.Marshal(loaded)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestSerializeOmitsUnlocatedFields(t *testing.T) {
	rec, err := NewBuilder().BuildFromText("發票號碼 AB-12345678\n")
	require.NoError(t, err)

	wire := rec.Serialize()
	assert.Equal(t, "AB12345678", wire.InvoiceNumber)
	assert.Empty(t, wire.Date)
	assert.Empty(t, wire.Subtotal)
	assert.Empty(t, wire.Tax)
	assert.Empty(t, wire.Total)
	assert.Equal(t, []string{FieldInvoiceNumber}, wire.Located)
	assert.Equal(t, StatusPartial, wire.Status)
}

func TestLoadRecordRejectsBadNumber(t *testing.T) {
	_, err := LoadRecord(SerializedRecord{InvoiceNumber: "bogus"})
	assert.Error(t, err)
}

func TestLoadRecordDefaultsCalendar(t *testing.T) {
	rec, err := LoadRecord(SerializedRecord{Date: "2024-05-01"})
	require.NoError(t, err)
	require.NotNil(t, rec.Date)
	assert.Equal(t, CalendarGregorian, rec.Date.Source)
}
