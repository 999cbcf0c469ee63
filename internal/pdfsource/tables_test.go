package pdfsource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupRunsByRow(t *testing.T) {
	runs := []textRun{
		{X: 10, Y: 700, S: "發票號碼"},
		{X: 120, Y: 701, S: "AB-12345678"},
		{X: 10, Y: 680, S: "日期"},
		{X: 120, Y: 680, S: "113年5月1日"},
	}

	rows := groupRunsByRow(runs, rowTolerance)
	require.Len(t, rows, 2)

	assert.Equal(t, "發票號碼", rows[0][0].S)
	assert.Equal(t, "AB-12345678", rows[0][1].S)
	assert.Equal(t, "日期", rows[1][0].S)
}

func TestGroupRunsByRowSortsWithinRow(t *testing.T) {
	runs := []textRun{
		{X: 200, Y: 500, S: "right"},
		{X: 10, Y: 500, S: "left"},
	}
	rows := groupRunsByRow(runs, rowTolerance)
	require.Len(t, rows, 1)
	assert.Equal(t, "left", rows[0][0].S)
	assert.Equal(t, "right", rows[0][1].S)
}

func TestGroupRunsByRowEmpty(t *testing.T) {
	assert.Nil(t, groupRunsByRow(nil, rowTolerance))
}

func TestMergeRowCells(t *testing.T) {
	// Two glyph runs close together form one cell; a wide gap starts the
	// next cell.
	row := []textRun{
		{X: 10, Y: 700, S: "品"},
		{X: 20, Y: 700, S: "名"},
		{X: 120, Y: 700, S: "數量"},
		{X: 220, Y: 700, S: "金額"},
	}

	cells := mergeRowCells(row, columnGap)
	require.Len(t, cells, 3)
	assert.Equal(t, "品名", cells[0].Text)
	assert.Equal(t, "數量", cells[1].Text)
	assert.Equal(t, "金額", cells[2].Text)
	assert.Equal(t, 10.0, cells[0].X)
	assert.Equal(t, 120.0, cells[1].X)
}

func TestMergeRowCellsSingle(t *testing.T) {
	cells := mergeRowCells([]textRun{{X: 10, Y: 1, S: "電子發票證明聯"}}, columnGap)
	require.Len(t, cells, 1)
	assert.Equal(t, "電子發票證明聯", cells[0].Text)
}

func TestRowText(t *testing.T) {
	line := rowText([]cell{{X: 10, Text: "小計"}, {X: 200, Text: "145"}})
	assert.Equal(t, "小計 145", line)
}

func TestBuildTables(t *testing.T) {
	rows := [][]cell{
		{{X: 10, Text: "電子發票證明聯"}},
		{{X: 10, Text: "品名"}, {X: 120, Text: "數量"}, {X: 180, Text: "單價"}, {X: 240, Text: "金額"}},
		{{X: 10, Text: "烏龍茶"}, {X: 120, Text: "2"}, {X: 180, Text: "30"}, {X: 240, Text: "60"}},
		{{X: 10, Text: "便當"}, {X: 120, Text: "1"}, {X: 180, Text: "85"}, {X: 240, Text: "85"}},
		{{X: 10, Text: "合計 145"}},
	}

	tables := buildTables(rows)
	require.Len(t, tables, 1)

	grid := tables[0]
	require.Len(t, grid, 3)
	assert.Equal(t, []string{"品名", "數量", "單價", "金額"}, grid[0])
	assert.Equal(t, []string{"烏龍茶", "2", "30", "60"}, grid[1])
	assert.Equal(t, []string{"便當", "1", "85", "85"}, grid[2])
}

func TestBuildTablesRaggedRow(t *testing.T) {
	// A data row missing its middle cells still lands under the right
	// headers via horizontal position.
	rows := [][]cell{
		{{X: 10, Text: "品名"}, {X: 120, Text: "數量"}, {X: 240, Text: "金額"}},
		{{X: 10, Text: "服務費"}, {X: 240, Text: "100"}},
	}

	tables := buildTables(rows)
	require.Len(t, tables, 1)
	assert.Equal(t, []string{"服務費", "", "100"}, tables[0][1])
}

func TestBuildTablesNoBlock(t *testing.T) {
	rows := [][]cell{
		{{X: 10, Text: "單行文字"}},
		{{X: 10, Text: "品名"}, {X: 120, Text: "金額"}},
		{{X: 10, Text: "又一行"}},
	}
	assert.Empty(t, buildTables(rows))
}

func TestReaderExtractRejectsBadInput(t *testing.T) {
	r := NewReader(1024 * 1024)

	_, err := r.Extract(ExtractRequest{Path: ""})
	assert.Error(t, err)

	_, err = r.Extract(ExtractRequest{Path: "/does/not/exist.pdf"})
	assert.Error(t, err)

	_, err = r.Extract(ExtractRequest{Path: t.TempDir()})
	assert.Error(t, err)
}

func TestValidatorRejectsBadInput(t *testing.T) {
	v := NewValidator(1024 * 1024)

	tests := []struct {
		name string
		path string
	}{
		{name: "empty path", path: ""},
		{name: "missing file", path: "/does/not/exist.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := v.Validate(ValidateRequest{Path: tt.path})
			require.NoError(t, err)
			assert.False(t, result.Valid)
			assert.NotEmpty(t, result.Message)
		})
	}
}
