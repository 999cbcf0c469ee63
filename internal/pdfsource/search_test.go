package pdfsource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))
	return path
}

func TestSearchDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "invoice-may.pdf", 100)
	writeFile(t, dir, "invoice-june.PDF", 100)
	writeFile(t, dir, "notes.txt", 100)
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o700))
	writeFile(t, sub, "receipt.pdf", 100)

	s := NewSearch(1024)
	result, err := s.SearchDirectory(SearchRequest{Directory: dir})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Count)
	names := make([]string, 0, len(result.Files))
	for _, f := range result.Files {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "invoice-may.pdf")
	assert.Contains(t, names, "invoice-june.PDF")
	assert.Contains(t, names, "receipt.pdf")
	assert.NotContains(t, names, "notes.txt")
}

func TestSearchDirectoryQuery(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "invoice-may.pdf", 100)
	writeFile(t, dir, "receipt.pdf", 100)

	s := NewSearch(1024)
	result, err := s.SearchDirectory(SearchRequest{Directory: dir, Query: "INVOICE"})
	require.NoError(t, err)

	require.Equal(t, 1, result.Count)
	assert.Equal(t, "invoice-may.pdf", result.Files[0].Name)
}

func TestSearchDirectorySkipsOversized(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "big.pdf", 2048)

	s := NewSearch(1024)
	result, err := s.SearchDirectory(SearchRequest{Directory: dir})
	require.NoError(t, err)
	assert.Zero(t, result.Count)
}

func TestSearchDirectoryErrors(t *testing.T) {
	s := NewSearch(1024)

	_, err := s.SearchDirectory(SearchRequest{Directory: ""})
	assert.Error(t, err)

	_, err = s.SearchDirectory(SearchRequest{Directory: "/does/not/exist"})
	assert.Error(t, err)
}
