package einvoice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullInvoiceText = `電子發票證明聯
發票號碼 AB-12345678
發票日期 113年5月1日
賣方名稱: 好客來餐廳
賣方統一編號: 22099131
買方名稱: 測試買家股份有限公司
買方統編: 04595257
小計: 145
營業稅: 7
合計: 152
`

func fullInvoiceContent() RawContent {
	return NewRawContentFromText(fullInvoiceText, [][][]string{itemTable()})
}

func TestBuilderCompleteInvoice(t *testing.T) {
	rec, err := NewBuilder().Build(fullInvoiceContent())
	require.NoError(t, err)

	assert.Equal(t, StatusComplete, rec.Status)
	assert.Equal(t, InvoiceNumber("AB12345678"), rec.Number)
	require.NotNil(t, rec.Date)
	assert.Equal(t, "2024-05-01", rec.Date.ISO())
	assert.Equal(t, CalendarMinguo, rec.Date.Source)
	assert.Equal(t, TaxID("22099131"), rec.SellerTaxID)
	assert.Equal(t, TaxID("04595257"), rec.BuyerTaxID)
	assert.Equal(t, "好客來餐廳", rec.SellerName)
	assert.Equal(t, "測試買家股份有限公司", rec.BuyerName)

	require.NotNil(t, rec.Amounts)
	assert.Equal(t, "145", rec.Amounts.Subtotal.String())
	assert.Equal(t, "7", rec.Amounts.Tax.String())
	assert.Equal(t, "152", rec.Amounts.Total.String())

	require.Len(t, rec.Items, 2)
	assert.True(t, rec.LocatedField(FieldItems))
	assert.Empty(t, rec.Diagnostics)
}

func TestBuilderEmptySource(t *testing.T) {
	_, err := NewBuilder().Build(NewRawContentFromText("", nil))
	assert.ErrorIs(t, err, ErrEmptySource)

	_, err = NewBuilder().Build(NewRawContentFromText("   \n\t\n", nil))
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestBuilderPartialInvoice(t *testing.T) {
	rec, err := NewBuilder().BuildFromText("發票號碼 AB-12345678\n合計: 100\n")
	require.NoError(t, err)

	assert.Equal(t, StatusPartial, rec.Status)
	assert.True(t, rec.LocatedField(FieldInvoiceNumber))
	assert.True(t, rec.LocatedField(FieldTotal))
	assert.False(t, rec.LocatedField(FieldDate))
	assert.False(t, rec.LocatedField(FieldSellerTaxID))
	assert.Nil(t, rec.Date)
}

func TestBuilderFailedInvoice(t *testing.T) {
	rec, err := NewBuilder().BuildFromText("這份文件不是發票\n只有一些文字\n")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Empty(t, rec.Items)
}

func TestBuilderStatusClassification(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Status
	}{
		{
			name: "date without invoice number fails",
			text: "發票日期 113年5月1日\n",
			want: StatusFailed,
		},
		{
			name: "amount mismatch degrades a fully located record",
			text: "發票號碼 AB-12345678\n發票日期 113年5月1日\n賣方統一編號: 22099131\n買方統編: 04595257\n小計: 100\n營業稅: 10\n合計: 115\n",
			want: StatusPartial,
		},
		{
			name: "complete without party names",
			text: "發票號碼 AB-12345678\n發票日期 113年5月1日\n賣方統一編號: 22099131\n買方統編: 04595257\n小計: 100\n營業稅: 10\n合計: 110\n",
			want: StatusComplete,
		},
		{
			name: "missing tax ids stay partial",
			text: "發票號碼 AB-12345678\n發票日期 113年5月1日\n小計: 100\n營業稅: 10\n合計: 110\n",
			want: StatusPartial,
		},
		{
			name: "labeled checksum failure degrades",
			text: "發票號碼 AB-12345678\n發票日期 113年5月1日\n賣方統一編號: 12345678\n買方統編: 04595257\n小計: 100\n營業稅: 10\n合計: 110\n",
			want: StatusPartial,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := NewBuilder().BuildFromText(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Status, "diagnostics: %v", rec.Diagnostics)
		})
	}
}

func TestBuilderInvalidDateDiagnostic(t *testing.T) {
	rec, err := NewBuilder().BuildFromText("發票號碼 AB-12345678\n日期 113年13月5日\n")
	require.NoError(t, err)

	assert.Nil(t, rec.Date)
	assert.False(t, rec.LocatedField(FieldDate))
	require.NotEmpty(t, rec.Diagnostics)
	assert.Contains(t, strings.Join(rec.Diagnostics, "\n"), "date")
}

func TestBuilderAmountMismatchDiagnostic(t *testing.T) {
	rec, err := NewBuilder().BuildFromText("小計: 100\n營業稅: 5\n合計: 999\n")
	require.NoError(t, err)

	found := false
	for _, d := range rec.Diagnostics {
		if strings.Contains(d, "does not equal total") {
			found = true
		}
	}
	assert.True(t, found, "expected amount mismatch diagnostic, got %v", rec.Diagnostics)
}

func TestBuilderItemProductDiagnostic(t *testing.T) {
	table := [][]string{
		{"品名", "數量", "單價", "金額"},
		{"烏龍茶", "2", "30", "99"},
	}
	rec, err := NewBuilder().Build(NewRawContentFromText("發票", [][][]string{table}))
	require.NoError(t, err)

	found := false
	for _, d := range rec.Diagnostics {
		if strings.Contains(d, "differs from amount") {
			found = true
		}
	}
	assert.True(t, found, "expected item product diagnostic, got %v", rec.Diagnostics)
}

func TestBuilderTotalFallbackFromItems(t *testing.T) {
	// No labeled total anywhere; the item sum stands in.
	rec, err := NewBuilder().Build(NewRawContentFromText("發票", [][][]string{itemTable()}))
	require.NoError(t, err)

	assert.True(t, rec.LocatedField(FieldTotal))
	require.NotNil(t, rec.Amounts)
	assert.Equal(t, "145", rec.Amounts.Total.String())
}

func TestBuilderUnlabeledTaxIDDiagnostic(t *testing.T) {
	// Checksum-valid candidate with no role label: diagnostic only, the
	// field itself stays unset.
	rec, err := NewBuilder().BuildFromText("編號 22099131 其他內容\n")
	require.NoError(t, err)

	assert.False(t, rec.LocatedField(FieldSellerTaxID))
	assert.False(t, rec.LocatedField(FieldBuyerTaxID))

	found := false
	for _, d := range rec.Diagnostics {
		if strings.Contains(d, "22099131") {
			found = true
		}
	}
	assert.True(t, found, "expected unlabeled candidate diagnostic, got %v", rec.Diagnostics)
}

func TestBuilderChecksumDiagnosticOnLabeledID(t *testing.T) {
	rec, err := NewBuilder().BuildFromText("賣方統編: 12345678\n")
	require.NoError(t, err)

	assert.Equal(t, TaxID("12345678"), rec.SellerTaxID)
	assert.True(t, rec.LocatedField(FieldSellerTaxID))

	found := false
	for _, d := range rec.Diagnostics {
		if strings.Contains(d, "checksum") {
			found = true
		}
	}
	assert.True(t, found, "expected checksum diagnostic, got %v", rec.Diagnostics)
}

func TestBuilderIdempotent(t *testing.T) {
	b := NewBuilder()
	c := fullInvoiceContent()

	first, err := b.Build(c)
	require.NoError(t, err)
	second, err := b.Build(c)
	require.NoError(t, err)

	assert.Equal(t, first.Serialize(), second.Serialize())
}

func TestBuilderSummary(t *testing.T) {
	rec, err := NewBuilder().Build(fullInvoiceContent())
	require.NoError(t, err)

	summary := rec.Summary()
	assert.Contains(t, summary, "AB12345678")
	assert.Contains(t, summary, "2024-05-01")
	assert.Contains(t, summary, "好客來餐廳")
	assert.Contains(t, summary, "Status: complete")
}
