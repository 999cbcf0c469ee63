package pdfsource

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Search discovers PDF files on disk.
type Search struct {
	maxFileSize int64
}

// NewSearch creates a Search with the given file size limit.
func NewSearch(maxFileSize int64) *Search {
	return &Search{maxFileSize: maxFileSize}
}

// SearchDirectory walks a directory tree and lists the PDF files in it,
// optionally filtered by a case-insensitive filename substring. Oversized
// files and unreadable entries are skipped, not fatal.
func (s *Search) SearchDirectory(req SearchRequest) (*SearchResult, error) {
	if req.Directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}
	if _, err := os.Stat(req.Directory); os.IsNotExist(err) {
		return nil, fmt.Errorf("directory does not exist: %s", req.Directory)
	}

	absDirectory, err := filepath.Abs(req.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	query := strings.ToLower(strings.TrimSpace(req.Query))
	var files []FileInfo

	err = filepath.Walk(absDirectory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() || !strings.HasSuffix(strings.ToLower(info.Name()), ".pdf") {
			return nil
		}
		if info.Size() > s.maxFileSize {
			return nil
		}
		if query != "" && !strings.Contains(strings.ToLower(info.Name()), query) {
			return nil
		}
		files = append(files, FileInfo{
			Path: path,
			Name: info.Name(),
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search directory: %w", err)
	}

	return &SearchResult{
		Directory: absDirectory,
		Files:     files,
		Count:     len(files),
	}, nil
}
