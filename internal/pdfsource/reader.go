package pdfsource

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/einvtw/einvoice-filer/internal/einvoice"
)

// Reader extracts raw invoice content from PDF files. It reconstructs the
// visual layout from positioned text runs: rows clustered by Y coordinate
// become text lines, and consecutive multi-cell rows become table grids.
type Reader struct {
	maxFileSize int64
}

// NewReader creates a Reader with the given file size limit in bytes.
func NewReader(maxFileSize int64) *Reader {
	return &Reader{maxFileSize: maxFileSize}
}

// Extract reads a PDF file and returns its content as lines and tables.
func (r *Reader) Extract(req ExtractRequest) (*ExtractResult, error) {
	if req.Path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(req.Path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", req.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if err := r.checkFile(req.Path, fileInfo); err != nil {
		return nil, err
	}

	f, pdfReader, err := pdf.Open(req.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var lines []string
	var tables [][][]string

	for pageNum := 1; pageNum <= pdfReader.NumPage(); pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		pageLines, pageTables := extractPage(page)
		lines = append(lines, pageLines...)
		tables = append(tables, pageTables...)
	}

	return &ExtractResult{
		Content: einvoice.NewRawContent(lines, tables),
		Path:    req.Path,
		Pages:   pdfReader.NumPage(),
		Size:    fileInfo.Size(),
	}, nil
}

// extractPage turns one page into text lines and table grids. When the page
// carries no positioned runs it falls back to the plain-text stream.
func extractPage(page pdf.Page) ([]string, [][][]string) {
	runs := pageRuns(page)
	if len(runs) == 0 {
		return plainTextLines(page), nil
	}

	rowRuns := groupRunsByRow(runs, rowTolerance)
	cellRows := make([][]cell, 0, len(rowRuns))
	lines := make([]string, 0, len(rowRuns))
	for _, row := range rowRuns {
		cells := mergeRowCells(row, columnGap)
		if len(cells) == 0 {
			continue
		}
		cellRows = append(cellRows, cells)
		lines = append(lines, rowText(cells))
	}

	return lines, buildTables(cellRows)
}

// pageRuns collects the positioned text fragments of a page. A content
// stream the underlying reader cannot decode yields no runs rather than a
// failure.
func pageRuns(page pdf.Page) (runs []textRun) {
	defer func() {
		if recover() != nil {
			runs = nil
		}
	}()

	for _, t := range page.Content().Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		runs = append(runs, textRun{X: t.X, Y: t.Y, S: t.S})
	}
	return runs
}

func plainTextLines(page pdf.Page) []string {
	text, err := page.GetPlainText(nil)
	if err != nil || strings.TrimSpace(text) == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

func (r *Reader) checkFile(path string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", path)
	}
	if fileInfo.Size() > r.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)", fileInfo.Size(), r.maxFileSize)
	}
	return nil
}
