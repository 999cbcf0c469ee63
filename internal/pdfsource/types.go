package pdfsource

import "github.com/einvtw/einvoice-filer/internal/einvoice"

// ExtractRequest asks for the raw content of a single PDF file.
type ExtractRequest struct {
	Path string `json:"path"`
}

// ExtractResult carries the raw content handed to the extraction core along
// with basic file facts for reporting.
type ExtractResult struct {
	Content einvoice.RawContent `json:"-"`
	Path    string              `json:"path"`
	Pages   int                 `json:"pages"`
	Size    int64               `json:"size"`
}

// ValidateRequest asks whether a file is a structurally sound PDF.
type ValidateRequest struct {
	Path string `json:"path"`
}

// ValidateResult reports the validation outcome. An invalid file is a
// result, not a processing error.
type ValidateResult struct {
	Path    string `json:"path"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// SearchRequest asks for PDF files under a directory, optionally filtered
// by a case-insensitive filename substring.
type SearchRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query,omitempty"`
}

// FileInfo describes one discovered PDF file.
type FileInfo struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// SearchResult lists the PDF files found under the searched directory.
type SearchResult struct {
	Directory string     `json:"directory"`
	Files     []FileInfo `json:"files"`
	Count     int        `json:"count"`
}
