package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage writes files into one flat directory that the router also
// serves under /uploads.
type LocalStorage struct {
	dir string
}

// NewLocalStorage creates dir if needed.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStorage{dir: dir}, nil
}

// Dir is the directory files are written to.
func (s *LocalStorage) Dir() string { return s.dir }

// Save refuses to overwrite an existing file and removes a partly written
// one when the copy fails.
func (s *LocalStorage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	base := filepath.Base(name)
	if base != name || base == "." || base == ".." || base == "" {
		return "", fmt.Errorf("local storage: unsafe name %q", name)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, base)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("local storage: %s already exists", base)
		}
		return "", fmt.Errorf("local storage open: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("local storage write %s: %w", base, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("local storage close %s: %w", base, err)
	}
	return base, nil
}

// Remove deletes a file written by Save. A file that is already gone is
// not an error.
func (s *LocalStorage) Remove(_ context.Context, name string) error {
	base := filepath.Base(name)
	if base != name || base == "." || base == ".." || base == "" {
		return fmt.Errorf("local storage: unsafe name %q", name)
	}
	if err := os.Remove(filepath.Join(s.dir, base)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("local storage remove %s: %w", base, err)
	}
	return nil
}
