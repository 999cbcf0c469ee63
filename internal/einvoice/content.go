package einvoice

import (
	"errors"
	"strings"
)

// ErrEmptySource is returned by the Builder when the upstream PDF source
// produced no text and no tables to extract from.
var ErrEmptySource = errors.New("source content is empty")

// RawContent is the input contract from the PDF source: the plain text of a
// document as ordered lines, plus the table grids reconstructed from it.
// It is built once per document and read-only afterward; locators never
// mutate it.
type RawContent struct {
	lines  []string
	tables [][][]string
}

// NewRawContent builds a RawContent from text lines and table grids. The
// inputs are copied so later mutation by the caller cannot leak into an
// extraction run.
func NewRawContent(lines []string, tables [][][]string) RawContent {
	c := RawContent{
		lines:  make([]string, len(lines)),
		tables: make([][][]string, len(tables)),
	}
	copy(c.lines, lines)
	for i, table := range tables {
		c.tables[i] = make([][]string, len(table))
		for j, row := range table {
			c.tables[i][j] = make([]string, len(row))
			copy(c.tables[i][j], row)
		}
	}
	return c
}

// NewRawContentFromText splits a text blob into lines and wraps it together
// with the table grids.
func NewRawContentFromText(text string, tables [][][]string) RawContent {
	var lines []string
	if text != "" {
		lines = strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	}
	return NewRawContent(lines, tables)
}

// Lines returns the text lines in document order.
func (c RawContent) Lines() []string {
	return c.lines
}

// Tables returns the table grids in document order.
func (c RawContent) Tables() [][][]string {
	return c.tables
}

// Text returns the full text joined with newlines.
func (c RawContent) Text() string {
	return strings.Join(c.lines, "\n")
}

// Empty reports whether the content carries neither text nor tables.
func (c RawContent) Empty() bool {
	for _, line := range c.lines {
		if strings.TrimSpace(line) != "" {
			return false
		}
	}
	return len(c.tables) == 0
}
