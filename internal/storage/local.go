// Package storage persists uploaded note files on the local filesystem.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore writes uploaded files under a single base directory. Stored
// names are uuid-based so user-supplied file names never touch the
// filesystem.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates the base directory if needed.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// Save streams content into a new file and returns the stored path. The
// original name contributes only its extension.
func (s *LocalStore) Save(originalName string, content io.Reader) (string, int64, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	name := uuid.New().String() + ext
	path := filepath.Join(s.baseDir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, content)
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("writing file: %w", err)
	}
	return path, written, nil
}

// Open opens a stored file for reading.
func (s *LocalStore) Open(path string) (*os.File, error) {
	if !s.contains(path) {
		return nil, fmt.Errorf("path outside upload directory")
	}
	return os.Open(path)
}

// Remove deletes a stored file. Missing files are not an error; a crashed
// earlier removal may already have cleaned up.
func (s *LocalStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if !s.contains(path) {
		return fmt.Errorf("path outside upload directory")
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing file: %w", err)
	}
	return nil
}

func (s *LocalStore) contains(path string) bool {
	base, err := filepath.Abs(s.baseDir)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return abs == base || strings.HasPrefix(abs, base+string(filepath.Separator))
}
