package pdfsource

import (
	"fmt"

	"github.com/einvtw/einvoice-filer/internal/einvoice"
)

// Service orchestrates the PDF components into the operations the serving
// surfaces expose: validate, extract, parse, and directory search.
type Service struct {
	maxFileSize int64
	reader      *Reader
	validator   *Validator
	search      *Search
	builder     *einvoice.Builder
}

// NewService creates a Service with all components sharing one file size
// limit.
func NewService(maxFileSize int64) *Service {
	return &Service{
		maxFileSize: maxFileSize,
		reader:      NewReader(maxFileSize),
		validator:   NewValidator(maxFileSize),
		search:      NewSearch(maxFileSize),
		builder:     einvoice.NewBuilder(),
	}
}

// Validate checks that a file is a structurally sound PDF.
func (s *Service) Validate(req ValidateRequest) (*ValidateResult, error) {
	return s.validator.Validate(req)
}

// Extract returns the raw lines and tables of a PDF file.
func (s *Service) Extract(req ExtractRequest) (*ExtractResult, error) {
	return s.reader.Extract(req)
}

// SearchDirectory lists PDF files under a directory.
func (s *Service) SearchDirectory(req SearchRequest) (*SearchResult, error) {
	return s.search.SearchDirectory(req)
}

// ParseFile extracts a PDF and runs the invoice extraction over its
// content.
func (s *Service) ParseFile(path string) (*einvoice.InvoiceRecord, error) {
	extracted, err := s.reader.Extract(ExtractRequest{Path: path})
	if err != nil {
		return nil, err
	}
	rec, err := s.builder.Build(extracted.Content)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}
	return rec, nil
}

// ParseContent runs the invoice extraction over already-extracted content.
// Web uploads that were decoded in memory use this path.
func (s *Service) ParseContent(c einvoice.RawContent) (*einvoice.InvoiceRecord, error) {
	return s.builder.Build(c)
}

// MaxFileSize returns the configured file size limit in bytes.
func (s *Service) MaxFileSize() int64 {
	return s.maxFileSize
}
