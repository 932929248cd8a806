package media

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

// PhotoStore writes normalised photos to a directory served under urlPrefix.
type PhotoStore struct {
	dir       string
	urlPrefix string
	maxWidth  int
	maxPixels int
}

// NewPhotoStore creates the upload directory if needed. Uploads declaring
// more than maxPixels pixels are rejected (0 disables the check).
func NewPhotoStore(dir, urlPrefix string, maxWidth, maxPixels int) (*PhotoStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &PhotoStore{dir: dir, urlPrefix: urlPrefix, maxWidth: maxWidth, maxPixels: maxPixels}, nil
}

// Dir is the directory photos are written to.
func (s *PhotoStore) Dir() string { return s.dir }

// URLPrefix is the path prefix photos are served under.
func (s *PhotoStore) URLPrefix() string { return s.urlPrefix }

// Save normalises data and writes it under a fresh name. Returns the served URL.
func (s *PhotoStore) Save(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	encoded, ext, err := Normalize(data, s.maxWidth, s.maxPixels)
	if err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	tmp := filepath.Join(s.dir, "."+name+".tmp")
	if err := os.WriteFile(tmp, encoded, 0o644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("rename photo: %w", err)
	}

	return path.Join(s.urlPrefix, name), nil
}

// Remove deletes a photo previously returned by Save. Unknown URLs are ignored.
func (s *PhotoStore) Remove(url string) error {
	name := path.Base(url)
	if path.Join(s.urlPrefix, name) != url {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove photo: %w", err)
	}
	return nil
}
