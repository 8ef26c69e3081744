// Package storage keeps uploaded images on local disk. Only the resulting
// paths are persisted by the catalog.
package storage

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

// LocalStore writes files under Dir.
type LocalStore struct {
	Dir string
}

// NewLocalStore creates the upload directory if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
	}
	return &LocalStore{Dir: dir}, nil
}

// Save stores fh under a random name that keeps the original extension and
// returns its path.
func (s *LocalStore) Save(fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	path := filepath.Join(s.Dir, uuid.New().String()+ext)
	if err := fasthttp.SaveMultipartFile(fh, path); err != nil {
		return "", fmt.Errorf("failed to save upload %s: %w", fh.Filename, err)
	}
	return filepath.ToSlash(path), nil
}

// Remove deletes previously saved files, ignoring ones already gone.
func (s *LocalStore) Remove(paths []string) {
	for _, p := range paths {
		_ = os.Remove(filepath.FromSlash(p))
	}
}
