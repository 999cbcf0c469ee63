package pdfsource

import (
	"sort"
	"strings"
)

// textRun is one positioned text fragment from a PDF content stream.
type textRun struct {
	X float64
	Y float64
	S string
}

// cell is a merged horizontal run of text within one visual row.
type cell struct {
	X    float64
	Text string
}

// Layout tolerances in PDF points. Runs within rowTolerance vertically
// belong to the same visual row; a horizontal gap of at least columnGap
// starts a new cell.
const (
	rowTolerance = 3.0
	columnGap    = 14.0
)

// groupRunsByRow clusters runs into visual rows, top of page first. PDF
// Y coordinates grow upward, so rows sort by descending Y.
func groupRunsByRow(runs []textRun, tolerance float64) [][]textRun {
	if len(runs) == 0 {
		return nil
	}

	sorted := make([]textRun, len(runs))
	copy(sorted, runs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Y > sorted[j].Y
	})

	var rows [][]textRun
	currentRow := []textRun{sorted[0]}
	currentY := sorted[0].Y

	for _, run := range sorted[1:] {
		if currentY-run.Y <= tolerance {
			currentRow = append(currentRow, run)
			continue
		}
		rows = append(rows, currentRow)
		currentRow = []textRun{run}
		currentY = run.Y
	}
	rows = append(rows, currentRow)

	for _, row := range rows {
		sort.Slice(row, func(i, j int) bool {
			return row[i].X < row[j].X
		})
	}
	return rows
}

// mergeRowCells joins the runs of one row into cells, splitting where the
// horizontal gap between consecutive runs exceeds the column gap. Runs from
// CJK fonts often arrive one glyph at a time; adjacent runs concatenate
// without an inserted space.
func mergeRowCells(row []textRun, gap float64) []cell {
	if len(row) == 0 {
		return nil
	}

	var cells []cell
	var builder strings.Builder
	startX := row[0].X
	prevEnd := row[0].X

	flush := func() {
		text := strings.TrimSpace(builder.String())
		if text != "" {
			cells = append(cells, cell{X: startX, Text: text})
		}
		builder.Reset()
	}

	for i, run := range row {
		if i > 0 && run.X-prevEnd >= gap {
			flush()
			startX = run.X
		}
		builder.WriteString(run.S)
		prevEnd = run.X + runWidth(run)
	}
	flush()
	return cells
}

// runWidth estimates the horizontal extent of a run. The underlying reader
// reports glyph positions but not advance widths, so an average glyph width
// per character stands in. CJK glyphs count double.
func runWidth(run textRun) float64 {
	const averageGlyphWidth = 5.0
	width := 0.0
	for _, r := range run.S {
		if r > 0x2E7F {
			width += 2 * averageGlyphWidth
		} else {
			width += averageGlyphWidth
		}
	}
	return width
}

// rowText renders a row's cells as one text line.
func rowText(cells []cell) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = c.Text
	}
	return strings.Join(parts, " ")
}

// buildTables finds table blocks in the cell rows of one page: maximal runs
// of two or more consecutive rows that each split into two or more cells.
// Each block becomes a grid with cells assigned to columns by horizontal
// position, so ragged rows still line up under their headers.
func buildTables(rows [][]cell) [][][]string {
	var tables [][][]string

	var block [][]cell
	flush := func() {
		if len(block) >= 2 {
			tables = append(tables, blockToGrid(block))
		}
		block = nil
	}

	for _, row := range rows {
		if len(row) >= 2 {
			block = append(block, row)
			continue
		}
		flush()
	}
	flush()
	return tables
}

// blockToGrid aligns a block's cells into columns. Column anchors come from
// the widest row; every cell snaps to the nearest anchor.
func blockToGrid(block [][]cell) [][]string {
	anchors := columnAnchors(block)

	grid := make([][]string, len(block))
	for i, row := range block {
		line := make([]string, len(anchors))
		for _, c := range row {
			col := nearestAnchor(anchors, c.X)
			if line[col] == "" {
				line[col] = c.Text
			} else {
				line[col] += " " + c.Text
			}
		}
		grid[i] = line
	}
	return grid
}

func columnAnchors(block [][]cell) []float64 {
	widest := block[0]
	for _, row := range block[1:] {
		if len(row) > len(widest) {
			widest = row
		}
	}
	anchors := make([]float64, len(widest))
	for i, c := range widest {
		anchors[i] = c.X
	}
	return anchors
}

func nearestAnchor(anchors []float64, x float64) int {
	best := 0
	bestDist := distance(anchors[0], x)
	for i, a := range anchors[1:] {
		if d := distance(a, x); d < bestDist {
			best = i + 1
			bestDist = d
		}
	}
	return best
}

func distance(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
