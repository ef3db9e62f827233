package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileStore implements ObjectStore on the local filesystem under a base
// directory. It does not implement URLSigner; downloads are served inline.
type FileStore struct {
	basePath string
}

// NewFileStore creates the base directory if missing.
func NewFileStore(basePath string) (*FileStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("storage base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

func (f *FileStore) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(f.basePath, clean), nil
}

// Put writes the object to disk, creating parent directories as needed.
func (f *FileStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_ = ctx
	_ = contentType
	target, err := f.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer out.Close()
	written, err := io.Copy(out, r)
	if err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if size >= 0 && written != size {
		return fmt.Errorf("short write: %d of %d bytes", written, size)
	}
	return nil
}

// Get opens the object for reading.
func (f *FileStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	_ = ctx
	target, err := f.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return file, nil
}

// Delete removes the object. Missing objects are not an error.
func (f *FileStore) Delete(ctx context.Context, key string) error {
	_ = ctx
	target, err := f.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}
