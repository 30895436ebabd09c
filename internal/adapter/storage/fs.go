// Package storage persists uploaded resume files on the local filesystem.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fairyhunter13/resume-matcher/internal/domain"
)

// FileStore writes raw upload bytes under a base directory, keyed by resume
// id. The original extension is kept so the extractor can dispatch on it.
type FileStore struct {
	baseDir string
}

// New constructs a FileStore rooted at baseDir, creating it if needed.
func New(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("op=storage.new: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Save writes data to <base>/<resumeID><ext> and returns the path.
func (s *FileStore) Save(_ domain.Context, resumeID, filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(s.baseDir, resumeID+ext)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("op=storage.save: %w", err)
	}
	return path, nil
}
